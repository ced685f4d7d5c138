package cli

const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2

	setCommandArgs = 2
)
