// Package log provides special log formatting features for tilehost.
package log

import (
	"log"
	"net/http"
	"reflect"
)

// Tprintf prints its arguments in the manner of [log.Printf], with a prefix of
// the form "Type(0xabcd...)" indicating the element type and address of the src
// pointer. This can be a convenient way to differentiate instances of the same
// type, though addresses are somewhat opaque as identifiers.
func Tprintf[T any](src *T, fmt string, v ...any) {
	tfmt := "%s(%p): " + fmt
	tval := make([]any, len(v)+2)
	tval[0], tval[1] = reflect.TypeOf((*T)(nil)).Elem().Name(), src
	copy(tval[2:], v)
	log.Printf(tfmt, tval...)
}

// Rprintf prints its arguments in the manner of [log.Printf], prefixed with the
// method and path of r along with the address of r itself, so that every line
// logged while handling a single request can be correlated.
func Rprintf(r *http.Request, fmt string, v ...any) {
	rfmt := "Request(%p) %s %s: " + fmt
	rval := make([]any, len(v)+3)
	rval[0], rval[1], rval[2] = r, r.Method, r.URL.Path
	copy(rval[3:], v)
	log.Printf(rfmt, rval...)
}
