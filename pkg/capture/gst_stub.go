//go:build !gst

package capture

import "fmt"

func newGstSource(Options) (Source, error) {
	return nil, fmt.Errorf("%w: built without the gst tag", ErrBackendUnavailable)
}
