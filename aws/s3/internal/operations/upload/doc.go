// Package upload moves local files into S3.
//
// Files below the multipart threshold are sent with a single PutObject;
// larger files are split into parts by the multipart package. Uploads that
// do not specify a content type have it detected from the file.
package upload
