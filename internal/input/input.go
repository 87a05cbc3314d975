// Package input отправляет системное сочетание вставки в активное окно.
package input

// Paster нажимает Ctrl+V (Cmd+V на macOS) в окне, которое сейчас в фокусе.
type Paster interface {
	// Paste отправляет сочетание вставки.
	Paste() error
}

// New создаёт платформо-специфичный Paster.
func New() (Paster, error) {
	return newPaster()
}
