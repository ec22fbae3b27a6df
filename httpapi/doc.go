// Package httpapi serves the goCred JSON API on a net/http ServeMux.
//
// Routes:
//
//	GET   /              liveness text
//	POST  /user/signup   create a user
//	POST  /user/signin   issue a credential
//	GET   /user          current identity
//	PATCH /user          rename the current user
//	POST  /user/logout   revoke the current opaque session
//
// Errors are written as {"kind": ..., "error": ...} with the status chosen
// by the error kind.
package httpapi
