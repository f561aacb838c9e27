package errors

import pkgerrors "github.com/pkg/errors"

// Re-exported so callers importing this package do not also need
// github.com/pkg/errors under another name.
var (
	New    = pkgerrors.New
	Errorf = pkgerrors.Errorf
	Wrap   = pkgerrors.Wrap
	Wrapf  = pkgerrors.Wrapf
	Cause  = pkgerrors.Cause
	Is     = pkgerrors.Is
	As     = pkgerrors.As
)
