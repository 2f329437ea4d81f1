package async

import "github.com/pkg/errors"

// ErrShutdown is reported to callbacks of jobs appended after Shutdown
var ErrShutdown = errors.New("async workers are shut down")
