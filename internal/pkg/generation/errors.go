package generation

import "fmt"

// DownloadError means the provider's result could not be fetched. Credits
// already spent at submission stay spent; the caller sees "generation
// succeeded upstream but failed to save".
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s failed", e.URL)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// UploadError means the fetched bytes could not be re-hosted in our own
// object store.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed", e.Key)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
