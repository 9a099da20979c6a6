// Package apitest provides in-process fakes of the auth service and the
// wallet API for tests.
package apitest
