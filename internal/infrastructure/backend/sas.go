package backend

import "strings"

// SignBlobURL appends the shared-access token to a blob URL unless the
// URL already carries a signature. The token may be stored with or
// without its leading "?".
func SignBlobURL(blobURL, sasToken string) string {
	if blobURL == "" || sasToken == "" {
		return blobURL
	}
	if strings.Contains(blobURL, "sig=") {
		return blobURL
	}

	token := strings.TrimPrefix(sasToken, "?")
	separator := "?"
	if strings.Contains(blobURL, "?") {
		separator = "&"
	}
	return blobURL + separator + token
}
