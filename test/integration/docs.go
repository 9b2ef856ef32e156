// Package integration contains end-to-end tests for the merchant payment server.
//
// These tests run the full HTTP surface in-process (chi router, middleware,
// handlers) against the in-memory store and a local stand-in gateway that
// behaves like the real one: it verifies the merchant signature, decrypts
// biz_content with the merchant public key and answers with signed,
// encrypted responses.
//
// These tests assume the crypto and paypay packages are working correctly
// (tested separately). If bugs are introduced in lower-level packages, there
// will be cascading failures here - fix the low-level problems first.
package integration
