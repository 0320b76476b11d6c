package classifier

import (
	"strconv"
	"strings"
	"time"

	"github.com/swyang-dev/opskb/internal/collector"
)

// Categories is the fixed classification taxonomy. The destination schema
// bakes these into its select options, so the set cannot drift per run.
var Categories = []string{
	"incident_response",
	"deployment_issue",
	"infrastructure",
	"database_issue",
	"data_pipeline",
	"monitoring_alert",
	"performance",
	"security",
	"access_request",
	"configuration",
	"question_support",
	"etc",
}

// Urgencies are the allowed urgency levels, lowest to highest.
var Urgencies = []string{"low", "medium", "high", "critical"}

const (
	CategoryFallback = "etc"
	UrgencyFallback  = "medium"
	UnknownPerson    = "unknown"
)

// Result is one structured classification.
type Result struct {
	Category         string   `json:"category"`
	IssueType        string   `json:"issue_type"`
	Components       []string `json:"system_components"`
	Cause            string   `json:"cause"`
	Resolution       string   `json:"resolution"`
	Reporter         string   `json:"reporter"`
	Resolver         string   `json:"resolver"`
	Urgency          string   `json:"urgency"`
	Keywords         []string `json:"keywords"`
	ResourceEstimate string   `json:"resource_estimate"`
	Summary          string   `json:"summary"`
}

// ResourceMinutes parses the estimated effort. Model output is free-form,
// so anything unparseable counts as zero.
func (r Result) ResourceMinutes() int {
	digits := strings.TrimFunc(r.ResourceEstimate, func(c rune) bool {
		return c < '0' || c > '9'
	})
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// normalize clamps model output onto the fixed taxonomy and fills blanks
// so every field downstream can rely on a value being present.
func (r Result) normalize(msg collector.ThreadedMessage) Result {
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	if !validCategory(r.Category) {
		r.Category = CategoryFallback
	}
	r.Urgency = strings.ToLower(strings.TrimSpace(r.Urgency))
	if !validUrgency(r.Urgency) {
		r.Urgency = UrgencyFallback
	}
	if strings.TrimSpace(r.Reporter) == "" {
		if msg.UserName != "" {
			r.Reporter = msg.UserName
		} else {
			r.Reporter = UnknownPerson
		}
	}
	if strings.TrimSpace(r.Resolver) == "" {
		r.Resolver = UnknownPerson
	}
	if strings.TrimSpace(r.IssueType) == "" {
		r.IssueType = "unclassified"
	}
	if strings.TrimSpace(r.Summary) == "" {
		r.Summary = firstLine(msg.Text)
	}
	return r
}

// fallbackResult is the total-function answer when classification cannot
// succeed: every message gets a result, no matter what the model did.
func fallbackResult(msg collector.ThreadedMessage) Result {
	return Result{
		Category:   CategoryFallback,
		IssueType:  "analysis failed",
		Cause:      "analysis failed",
		Resolution: "analysis failed",
		Reporter:   reporterOrUnknown(msg),
		Resolver:   UnknownPerson,
		Urgency:    UrgencyFallback,
		Summary:    firstLine(msg.Text),
	}
}

func reporterOrUnknown(msg collector.ThreadedMessage) string {
	if msg.UserName != "" {
		return msg.UserName
	}
	return UnknownPerson
}

func validCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func validUrgency(u string) bool {
	for _, v := range Urgencies {
		if v == u {
			return true
		}
	}
	return false
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	runes := []rune(text)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return text
}

// Classified pairs a message with its classification, timestamped for the
// checkpoint file. Timestamp duplicates the message ts at the top level so
// checkpoint entries stay addressable without unpacking the message.
type Classified struct {
	Message        collector.ThreadedMessage `json:"message"`
	Classification Result                    `json:"classification"`
	Timestamp      string                    `json:"timestamp"`
	ProcessedAt    time.Time                 `json:"processedAt"`
}
