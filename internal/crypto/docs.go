// crypto package provides the cryptographic primitives behind the PayPay
// gateway wire contract: PEM RSA key material, the canonical parameter
// string, SHA1withRSA signatures, chunked private-key payload encryption and
// the request id / timestamp generator.
//
// these are low level functions - for standard usage (building payment
// envelopes, verifying notifications) you will not need to call these
// functions directly. See the paypay package for high level functions.
package crypto
