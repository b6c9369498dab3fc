package zarrman

// Index is the JSON directory listing served at any non-leaf path in the
// manifest tree: the file and subdirectory names present there.
type Index struct {
	Files       []string `json:"files"`
	Directories []string `json:"directories"`
}
