package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// Unsupported reports whether no clipboard utility was found (xclip, xsel or
// wl-clipboard on linux).
func Unsupported() bool {
	return cb.Unsupported
}
