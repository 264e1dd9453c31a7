package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MProxyRequests           MetricKey = "proxy_requests_total"
	MCatalogProbeAttempts    MetricKey = "catalog_probe_attempts_total"
	MDomainEvents            MetricKey = "domain_events_total"
)

// MetricSpec describes how an instrument is registered: its help text and label keys.
type MetricSpec struct {
	Key    MetricKey
	Help   string
	Labels []string
}

// CounterSpecs lists every counter the services emit.
var CounterSpecs = []MetricSpec{
	{MUsecaseRequests, "Total number of use case invocations.", []string{"use_case", "outcome"}},
	{MHTTPRequests, "Total number of HTTP requests.", []string{"method", "route", "status"}},
	{MExternalRequests, "Calls made to collaborator services.", []string{"peer", "endpoint", "outcome"}},
	{MProxyRequests, "Requests forwarded by the gateway.", []string{"upstream", "outcome"}},
	{MCatalogProbeAttempts, "Catalog candidate paths tried by the gateway.", []string{"candidate", "outcome"}},
	{MDomainEvents, "Domain events observed by the activity worker.", []string{"event"}},
}

// HistogramSpecs lists every histogram the services emit.
var HistogramSpecs = []MetricSpec{
	{MUsecaseDuration, "Duration of use case execution in seconds.", []string{"use_case"}},
	{MHTTPRequestDuration, "Duration of HTTP requests in seconds.", []string{"method", "route", "status"}},
	{MExternalRequestDuration, "Duration of collaborator calls in seconds.", []string{"peer", "endpoint"}},
}
