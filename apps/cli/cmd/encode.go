package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	hhttp "github.com/abdul-hamid-achik/hittest/packages/http"
	"github.com/abdul-hamid-achik/hittest/packages/multipart"
	"github.com/abdul-hamid-achik/hittest/packages/params"
)

type encodeFlags struct {
	charset string
	url     string
	files   []string
}

func newEncodeCmd(global *globalFlags) *cobra.Command {
	flags := &encodeFlags{}

	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode name=value pairs the way a request would carry them",
		Long: `Encode name=value pairs into a query string, a form body, a multipart
body or a JSON document, and print the result with its content type.

Examples:
  hittest encode query a=1 b=2 --url /search
  hittest encode form name=café --charset latin1
  hittest encode multipart title=report --file attachment=./report.pdf
  hittest encode json id=7 tags='["a","b"]'`,
	}
	encodeCmd.PersistentFlags().StringVar(&flags.charset, "charset", getEnvString("HITTEST_CHARSET", ""), "Charset text values are encoded with (env: HITTEST_CHARSET)")

	run := func(encode func(fields []params.Field) (string, []byte, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := global.settings(cmd)
			if err != nil {
				return err
			}
			if flags.charset == "" {
				flags.charset = cfg.Charset
			}
			formatter, err := global.formatter(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			fields, err := parsePairs(args)
			if err != nil {
				return &exitError{code: ExitUsageError, err: err}
			}
			contentType, body, err := encode(fields)
			if err != nil {
				return &exitError{code: ExitEncodeError, err: err}
			}
			formatter.FormatEncoded(contentType, body)
			return nil
		}
	}

	queryCmd := &cobra.Command{
		Use:   "query [name=value...]",
		Short: "Append pairs to a URL as a query string",
		RunE: run(func(fields []params.Field) (string, []byte, error) {
			u, err := params.BuildParams(flags.url, params.Pairs(fields...))
			return "", []byte(u), err
		}),
	}
	queryCmd.Flags().StringVar(&flags.url, "url", "", "URL to append the query to")

	formCmd := &cobra.Command{
		Use:   "form [name=value...]",
		Short: "Encode pairs as an application/x-www-form-urlencoded body",
		RunE: run(func(fields []params.Field) (string, []byte, error) {
			contentType := hhttp.FormContentType
			if flags.charset != "" {
				contentType += "; charset=" + flags.charset
			}
			body, err := params.EncodeParams(params.Pairs(fields...), contentType)
			return contentType, []byte(body), err
		}),
	}

	multipartCmd := &cobra.Command{
		Use:   "multipart [name=value...]",
		Short: "Encode pairs and files as a multipart/form-data body",
		RunE: run(func(fields []params.Field) (string, []byte, error) {
			files, err := parseFiles(flags.files)
			if err != nil {
				return "", nil, err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return "", nil, err
			}
			b := multipart.Builder{Charset: flags.charset, BaseDir: cwd}
			return b.Encode(fields, files)
		}),
	}
	multipartCmd.Flags().StringArrayVarP(&flags.files, "file", "f", nil, "File part as name=path, relative to the working directory (repeatable)")

	jsonCmd := &cobra.Command{
		Use:   "json [name=value...]",
		Short: "Encode pairs as a JSON object",
		Long: `Encode pairs as a JSON object. Values that are valid JSON are embedded
as such; anything else becomes a string. Repeated names become arrays.`,
		RunE: run(func(fields []params.Field) (string, []byte, error) {
			body, err := hhttp.DefaultJSONEncoder(jsonObject(fields))
			return hhttp.JSONContentType, body, err
		}),
	}

	encodeCmd.AddCommand(queryCmd, formCmd, multipartCmd, jsonCmd)
	return encodeCmd
}

func parsePairs(args []string) ([]params.Field, error) {
	fields := make([]params.Field, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		fields = append(fields, params.F(name, value))
	}
	return fields, nil
}

func parseFiles(specs []string) ([]multipart.FileField, error) {
	files := make([]multipart.FileField, 0, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("expected --file name=path, got %q", spec)
		}
		files = append(files, multipart.FileAt(name, path))
	}
	return files, nil
}

func jsonObject(fields []params.Field) map[string]any {
	obj := make(map[string]any, len(fields))
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		raw, _ := f.Value.(string)
		var value any = raw
		if gjson.Valid(raw) {
			value = gjson.Parse(raw).Value()
		}

		counts[f.Name]++
		switch counts[f.Name] {
		case 1:
			obj[f.Name] = value
		case 2:
			obj[f.Name] = []any{obj[f.Name], value}
		default:
			obj[f.Name] = append(obj[f.Name].([]any), value)
		}
	}
	return obj
}
