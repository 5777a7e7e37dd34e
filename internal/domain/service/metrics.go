// Package service defines the domain services of the auth service.
package service

// Metrics defines the interface for collecting business metrics.
// This abstraction allows the domain and application layers to remain independent of Prometheus.
// Metrics 定义了收集业务指标的接口。
// 这种抽象使领域层与应用层能够独立于 Prometheus。
type Metrics interface {
	// RecordSignIn records the outcome of a sign-in attempt.
	// RecordSignIn 记录登录尝试的结果。
	RecordSignIn(result string)

	// RecordSignUp records the outcome of a sign-up attempt.
	// RecordSignUp 记录注册尝试的结果。
	RecordSignUp(result string)

	// RecordTokenIssued records a newly issued token.
	RecordTokenIssued()

	// RecordTokensRevoked records ledger entries invalidated by a re-issue.
	RecordTokensRevoked(count int)

	// RecordLogout records the outcome of a logout.
	RecordLogout(result string)

	// RecordDecodeFailure records a token decode failure by kind.
	RecordDecodeFailure(kind string)
}

// Result labels shared by the metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordSignIn(string)        {}
func (NoopMetrics) RecordSignUp(string)        {}
func (NoopMetrics) RecordTokenIssued()         {}
func (NoopMetrics) RecordTokensRevoked(int)    {}
func (NoopMetrics) RecordLogout(string)        {}
func (NoopMetrics) RecordDecodeFailure(string) {}

var _ Metrics = NoopMetrics{}
