// Package filestore is the blob storage collaborator: upload a file under a
// key, resolve a stable public url for it, delete it on owner request.
package filestore

import "io"

type FileStore interface {
	Upload(key string, body io.Reader) (url string, err error)
	GetUrlFromKey(key string) string
	Delete(key string) error
}
