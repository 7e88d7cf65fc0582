package tilereader

// LoadListener receives the notifications emitted during a LoadTiles call.
// Any callback may be nil; the listener itself may be nil too.
type LoadListener struct {
	// ProgressChanged is invoked once per completed tile with the completed count.
	ProgressChanged func(current int)
	// MaxProgressChanged reports the total number of items to be fetched.
	MaxProgressChanged func(max int)
	// MessageChanged carries a human readable status message.
	MessageChanged func(message string)
	// TileLimitReached fires at most once per call, when the cap cut the
	// candidate set down.
	TileLimitReached func()
}

func (l *LoadListener) progress(current int) {
	if l != nil && l.ProgressChanged != nil {
		l.ProgressChanged(current)
	}
}

func (l *LoadListener) maxProgress(max int) {
	if l != nil && l.MaxProgressChanged != nil {
		l.MaxProgressChanged(max)
	}
}

func (l *LoadListener) message(msg string) {
	if l != nil && l.MessageChanged != nil {
		l.MessageChanged(msg)
	}
}

func (l *LoadListener) limitReached() {
	if l != nil && l.TileLimitReached != nil {
		l.TileLimitReached()
	}
}

// LoadOptions tunes a single LoadTiles call.
type LoadOptions struct {
	// MaxTiles caps the number of returned tiles; 0 means no cap. When the
	// candidate set exceeds the cap, the tiles nearest its center win.
	MaxTiles int
	Listener *LoadListener
}
