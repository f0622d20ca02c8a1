// Package cookies connects requests and responses to a cookie jar.
//
// RequestAdapter and ResponseAdapter are thin views over *http.Request and
// *http.Response that expose only what a Jar consults. They are built per
// jar call and never cache cookies; the Jar is the single source of truth.
package cookies
