package filesystem

// Observer records filesystem operation metrics. The metrics package
// provides the implementation so that this package does not import it.
type Observer interface {
	// ObserveOperation records the total duration of an operation,
	// including retries. operation is "stat", "rename" or "write".
	ObserveOperation(operation, volume string, durationSeconds float64, err error)
	ObserveRetryAttempt(operation, volume string)
	ObserveRetrySuccess(operation, volume string)
	ObserveRetryFailure(operation, volume string)
}

var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, float64, error) {}
func (nopObserver) ObserveRetryAttempt(string, string)              {}
func (nopObserver) ObserveRetrySuccess(string, string)              {}
func (nopObserver) ObserveRetryFailure(string, string)              {}

func observer() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
