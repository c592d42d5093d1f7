package services

// Recorder receives domain counters. *metrics.Metrics satisfies it.
type Recorder interface {
	IncOTPIssued()
	IncOTPVerification(result string)
	IncOTPDispatchFailure()
	IncCertificatePublished()
	IncCertificateIDRetry()
	IncCertificateClaim(result string)
}

type noopRecorder struct{}

func (noopRecorder) IncOTPIssued() {}
func (noopRecorder) IncOTPVerification(string) {}
func (noopRecorder) IncOTPDispatchFailure() {}
func (noopRecorder) IncCertificatePublished() {}
func (noopRecorder) IncCertificateIDRetry() {}
func (noopRecorder) IncCertificateClaim(string) {}
