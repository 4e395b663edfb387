package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// RecordedCall is one EC2 Query API request seen by the stub transport.
type RecordedCall struct {
	Action string
	Params url.Values
}

// EC2Stub serves canned EC2 Query protocol responses keyed by Action. Each
// action's responses are returned in order; the last one repeats.
type EC2Stub struct {
	mu        sync.Mutex
	responses map[string][]string
	index     map[string]int
	calls     []RecordedCall
}

// NewEC2Stub creates a stub with the given responses.
func NewEC2Stub(responses map[string][]string) *EC2Stub {
	return &EC2Stub{responses: responses, index: map[string]int{}}
}

// Config returns an aws.Config whose HTTP traffic goes to the stub. Any
// Query protocol service built from it (EC2, STS) is served by Action.
func (s *EC2Stub) Config() aws.Config {
	return aws.Config{
		Region:           MockAWSRegion,
		Credentials:      credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
		HTTPClient:       &http.Client{Transport: s},
		BaseEndpoint:     aws.String("https://ec2.test"),
		RetryMaxAttempts: 1,
	}
}

// Client returns an *ec2.Client served by the stub.
func (s *EC2Stub) Client(t *testing.T) *ec2.Client {
	t.Helper()
	return ec2.NewFromConfig(s.Config())
}

// Calls returns every request received so far.
func (s *EC2Stub) Calls() []RecordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedCall(nil), s.calls...)
}

// CallsTo returns the requests received for one action.
func (s *EC2Stub) CallsTo(action string) []RecordedCall {
	var out []RecordedCall
	for _, call := range s.Calls() {
		if call.Action == action {
			out = append(out, call)
		}
	}
	return out
}

// RoundTrip implements http.RoundTripper.
func (s *EC2Stub) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	values, _ := url.ParseQuery(string(body))
	action := values.Get("Action")
	if action == "" {
		action = req.URL.Query().Get("Action")
	}

	s.mu.Lock()
	s.calls = append(s.calls, RecordedCall{Action: action, Params: values})
	respList := s.responses[action]
	if len(respList) == 0 {
		s.mu.Unlock()
		return xmlResponse(req, http.StatusBadRequest, EC2Error("InvalidAction", "unknown action "+action)), nil
	}
	idx := s.index[action]
	if idx >= len(respList) {
		idx = len(respList) - 1
	}
	s.index[action] = idx + 1
	resp := strings.TrimSpace(respList[idx])
	s.mu.Unlock()

	status := http.StatusOK
	if strings.Contains(resp, "<Errors>") {
		status = http.StatusBadRequest
	}
	return xmlResponse(req, status, resp), nil
}

func xmlResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"text/xml"}},
		Request:    req,
	}
}

// EC2Error renders an EC2 error response body.
func EC2Error(code, message string) string {
	return fmt.Sprintf(`<Response><Errors><Error><Code>%s</Code><Message>%s</Message></Error></Errors><RequestID>req-1</RequestID></Response>`, code, message)
}

// EC2Instance describes one instance for DescribeInstancesXML.
type EC2Instance struct {
	ID        string
	Type      string
	AZ        string
	State     string
	PublicDNS string
	Tags      map[string]string
}

var instanceStateCodes = map[string]int{
	"pending": 0, "running": 16, "shutting-down": 32, "terminated": 48, "stopping": 64, "stopped": 80,
}

// DescribeInstancesXML renders a DescribeInstances page. A non-empty
// nextToken marks more pages.
func DescribeInstancesXML(nextToken string, instances ...EC2Instance) string {
	var b strings.Builder
	b.WriteString(`<DescribeInstancesResponse xmlns="http://ec2.amazonaws.com/doc/2016-11-15/"><reservationSet>`)
	for _, inst := range instances {
		b.WriteString("<item><instancesSet><item>")
		fmt.Fprintf(&b, "<instanceId>%s</instanceId>", inst.ID)
		fmt.Fprintf(&b, "<instanceType>%s</instanceType>", inst.Type)
		fmt.Fprintf(&b, "<placement><availabilityZone>%s</availabilityZone></placement>", inst.AZ)
		fmt.Fprintf(&b, "<instanceState><code>%d</code><name>%s</name></instanceState>", instanceStateCodes[inst.State], inst.State)
		fmt.Fprintf(&b, "<dnsName>%s</dnsName>", inst.PublicDNS)
		if len(inst.Tags) > 0 {
			b.WriteString("<tagSet>")
			for k, v := range inst.Tags {
				fmt.Fprintf(&b, "<item><key>%s</key><value>%s</value></item>", k, v)
			}
			b.WriteString("</tagSet>")
		}
		b.WriteString("</item></instancesSet></item>")
	}
	b.WriteString("</reservationSet>")
	if nextToken != "" {
		fmt.Fprintf(&b, "<nextToken>%s</nextToken>", nextToken)
	}
	b.WriteString("</DescribeInstancesResponse>")
	return b.String()
}

// EC2Volume describes one volume for DescribeVolumesXML.
type EC2Volume struct {
	ID         string
	InstanceID string
	State      string
	Size       int
	Encrypted  bool
}

// DescribeVolumesXML renders a DescribeVolumes page.
func DescribeVolumesXML(volumes ...EC2Volume) string {
	var b strings.Builder
	b.WriteString(`<DescribeVolumesResponse xmlns="http://ec2.amazonaws.com/doc/2016-11-15/"><volumeSet>`)
	for _, v := range volumes {
		fmt.Fprintf(&b, "<item><volumeId>%s</volumeId><size>%d</size><status>%s</status><encrypted>%t</encrypted><volumeType>gp3</volumeType>", v.ID, v.Size, v.State, v.Encrypted)
		if v.InstanceID != "" {
			fmt.Fprintf(&b, "<attachmentSet><item><volumeId>%s</volumeId><instanceId>%s</instanceId><status>attached</status></item></attachmentSet>", v.ID, v.InstanceID)
		}
		b.WriteString("</item>")
	}
	b.WriteString("</volumeSet></DescribeVolumesResponse>")
	return b.String()
}

// EC2Snapshot describes one snapshot for DescribeSnapshotsXML.
type EC2Snapshot struct {
	ID        string
	VolumeID  string
	State     string
	Progress  string
	StartTime string // RFC 3339
}

// DescribeSnapshotsXML renders a DescribeSnapshots page.
func DescribeSnapshotsXML(snapshots ...EC2Snapshot) string {
	var b strings.Builder
	b.WriteString(`<DescribeSnapshotsResponse xmlns="http://ec2.amazonaws.com/doc/2016-11-15/"><snapshotSet>`)
	for _, s := range snapshots {
		fmt.Fprintf(&b, "<item><snapshotId>%s</snapshotId><volumeId>%s</volumeId><status>%s</status><progress>%s</progress><startTime>%s</startTime></item>",
			s.ID, s.VolumeID, s.State, s.Progress, s.StartTime)
	}
	b.WriteString("</snapshotSet></DescribeSnapshotsResponse>")
	return b.String()
}

// InstanceStateChangeXML renders a Start/StopInstances response for one instance.
func InstanceStateChangeXML(action, instanceID, previous, current string) string {
	setName := "instancesSet"
	return fmt.Sprintf(`<%sResponse xmlns="http://ec2.amazonaws.com/doc/2016-11-15/"><%s><item><instanceId>%s</instanceId><currentState><code>%d</code><name>%s</name></currentState><previousState><code>%d</code><name>%s</name></previousState></item></%s></%sResponse>`,
		action, setName, instanceID, instanceStateCodes[current], current, instanceStateCodes[previous], previous, setName, action)
}

// SimpleResponseXML renders a response with only a return flag, as sent by
// RebootInstances and CreateTags.
func SimpleResponseXML(action string) string {
	return fmt.Sprintf(`<%sResponse xmlns="http://ec2.amazonaws.com/doc/2016-11-15/"><requestId>req-1</requestId><return>true</return></%sResponse>`, action, action)
}

// CreateSnapshotXML renders a CreateSnapshot response.
func CreateSnapshotXML(snapshotID, volumeID, description string) string {
	return fmt.Sprintf(`<CreateSnapshotResponse xmlns="http://ec2.amazonaws.com/doc/2016-11-15/"><snapshotId>%s</snapshotId><volumeId>%s</volumeId><status>pending</status><startTime>2024-05-01T10:00:00.000Z</startTime><progress></progress><description>%s</description></CreateSnapshotResponse>`,
		snapshotID, volumeID, description)
}

// CallerIdentityXML renders an STS GetCallerIdentity response.
func CallerIdentityXML(account, arn string) string {
	return fmt.Sprintf(`<GetCallerIdentityResponse xmlns="https://sts.amazonaws.com/doc/2011-06-15/"><GetCallerIdentityResult><Arn>%s</Arn><UserId>AIDAEXAMPLE</UserId><Account>%s</Account></GetCallerIdentityResult><ResponseMetadata><RequestId>req-1</RequestId></ResponseMetadata></GetCallerIdentityResponse>`, arn, account)
}
