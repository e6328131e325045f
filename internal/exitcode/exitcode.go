package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	NoSourcesParsed = 3
	WriteError      = 4
	PipelineError   = 5
)
