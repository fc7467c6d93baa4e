package ai

import (
	"fmt"
	"strings"
	"time"
)

const extractionInstructions = `You are an assistant that reads emails about job applications and returns structured data.

Classify the email intent:
- NEW_APPLICATION: confirms the user just applied (e.g. "thank you for applying", "application received").
- APPLICATION_EVENT: an update on an existing application (assessment, interview, offer, rejection, withdrawal, reference request).
- GENERAL: anything else, including newsletters, job alerts and marketing.

Return ONLY a JSON object with these keys:
{
  "company": string, the hiring company (not the ATS vendor such as Greenhouse or Lever),
  "role": string, the job title exactly as written,
  "status": one of APPLIED, ASSESSMENT, INTERVIEW, REJECTED, OFFERED, ACCEPTED, WITHDRAWN,
  "intent": one of NEW_APPLICATION, APPLICATION_EVENT, GENERAL,
  "location": string or null,
  "salary_range": string or null,
  "notes": string or null, one short sentence worth remembering,
  "event_type": null or one of APPLICATION_SUBMITTED, APPLICATION_VIEWED, APPLICATION_REVIEWED,
    ASSESSMENT_RECEIVED, ASSESSMENT_COMPLETED, INTERVIEW_SCHEDULED, INTERVIEW_COMPLETED,
    REFERENCE_REQUESTED, OFFER_RECEIVED, OFFER_ACCEPTED, OFFER_DECLINED,
    APPLICATION_REJECTED, APPLICATION_WITHDRAWN,
  "event_description": string or null,
  "event_date": ISO 8601 date or datetime, or null,
  "confidence_score": number between 0 and 1
}

If the company or role cannot be determined use "Unknown Company" or "Unknown Role" and intent GENERAL.
Use null for anything the email does not state. Do not wrap the JSON in markdown.`

// BuildPrompt combines the instructions and the email into one prompt.
func BuildPrompt(subject, bodyText, bodyHTML string, now time.Time) string {
	var b strings.Builder
	b.WriteString(extractionInstructions)
	fmt.Fprintf(&b, "\n\nToday is %s.\n\n===== EMAIL =====\nSubject: %s\n\nBody:\n%s\n", now.Format("2006-01-02"), subject, bodyText)
	if strings.TrimSpace(bodyHTML) != "" {
		fmt.Fprintf(&b, "\nHTML:\n%s\n", bodyHTML)
	}
	return b.String()
}
