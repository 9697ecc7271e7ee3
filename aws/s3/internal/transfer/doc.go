// Package transfer groups the transfer machinery shared by uploads and
// server-side copies. See the multipart subpackage.
package transfer
