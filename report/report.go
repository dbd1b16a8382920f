// Package report assembles the written record of a court session.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/models"
)

const (
	rule            = "═══════════════════════════════════════════════════════════════"
	summaryFallback = "Executive summary generation failed. Please review the full transcript and evidence sections below."
	noStatement     = "No final statement has been provided by the presiding judge at this time."
	summaryBudget   = 4000
)

// Summarizer writes the executive summary
type Summarizer interface {
	Summarize(ctx context.Context, material string) (string, error)
}

// Input is everything a report is built from
type Input struct {
	Session        models.SessionSnapshot
	Evidence       []models.EvidenceFile
	Records        []models.CriminalRecord
	JudgeStatement string
	Duration       string
	GeneratedAt    time.Time
}

// Sections holds each rendered part of a report
type Sections struct {
	Header          string `json:"header"`
	Participants    string `json:"participants"`
	CriminalRecords string `json:"criminal_records"`
	Summary         string `json:"ai_analysis"`
	Transcript      string `json:"transcript"`
	Evidence        string `json:"evidence"`
	JudgeStatement  string `json:"judge_statement"`
	Footer          string `json:"footer"`
}

// Report is a generated session report
type Report struct {
	Success  bool     `json:"success"`
	Text     string   `json:"report"`
	Sections Sections `json:"sections"`
}

func heading(title string) string {
	return fmt.Sprintf("\n%s\n%s\n%s\n\n", rule, centre(title, len([]rune(rule))), rule)
}

func centre(s string, width int) string {
	pad := (width - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func formatTime(t time.Time) string {
	return t.UTC().Format("January 2, 2006 at 03:04 PM")
}

// Build renders the report for a session. A failed summary is replaced by a
// notice; the report itself is always produced.
func Build(ctx context.Context, in Input, summarizer Summarizer) Report {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now().UTC()
	}
	if in.Duration == "" {
		in.Duration = "N/A"
	}

	roles := make(map[string]models.Role, len(in.Session.Participants))
	for _, p := range in.Session.Participants {
		roles[p.ID] = p.Role
	}

	s := Sections{
		Header:          header(in),
		Participants:    participants(in.Session.Participants),
		CriminalRecords: criminalRecords(in.Records),
		Summary:         summary(ctx, in, roles, summarizer),
		Transcript:      transcript(in.Session.Transcript, roles),
		Evidence:        evidence(in.Evidence),
		JudgeStatement:  strings.TrimSpace(in.JudgeStatement),
		Footer:          footer(in.GeneratedAt),
	}

	statement := s.JudgeStatement
	if statement == "" {
		statement = noStatement
	}

	var b strings.Builder
	b.WriteString(s.Header)
	b.WriteString(s.Participants)
	b.WriteString(s.CriminalRecords)
	b.WriteString(heading("EXECUTIVE SUMMARY"))
	b.WriteString(s.Summary)
	b.WriteString("\n")
	b.WriteString(s.Transcript)
	b.WriteString(s.Evidence)
	b.WriteString(heading("JUDGE'S FINAL STATEMENT"))
	b.WriteString(statement)
	b.WriteString("\n")
	b.WriteString(s.Footer)

	return Report{Success: true, Text: b.String(), Sections: s}
}

func header(in Input) string {
	var b strings.Builder
	b.WriteString(heading("OFFICIAL COURT PROCEEDING REPORT"))
	fmt.Fprintf(&b, "Case Reference ID:      %s\n", in.Session.ID)
	fmt.Fprintf(&b, "Session Started:        %s\n", formatTime(in.Session.CreatedAt))
	fmt.Fprintf(&b, "Session Duration:       %s\n", in.Duration)
	fmt.Fprintf(&b, "Presiding Host:         %s\n", in.Session.HostName)
	fmt.Fprintf(&b, "Number of Participants: %d\n", len(in.Session.Participants))
	fmt.Fprintf(&b, "Report Generated:       %s\n", formatTime(in.GeneratedAt))
	return b.String()
}

func participants(people []models.Identity) string {
	var b strings.Builder
	b.WriteString(heading("PARTICIPANTS PRESENT"))
	if len(people) == 0 {
		b.WriteString("No participants remained in the session.\n")
		return b.String()
	}

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Name", "Role", "Participant ID"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, p := range people {
		table.Append([]string{p.DisplayName, string(p.Role), p.ID})
	}
	table.Render()
	return b.String()
}

func formatRecord(r models.CriminalRecord) string {
	return fmt.Sprintf("\n• Name: %s\n  Status: %s\n  Crime: %s\n  Year: %s\n  Details: %s\n",
		r.Name, r.Status, r.Crime, r.Year, r.Details)
}

func criminalRecords(records []models.CriminalRecord) string {
	var b strings.Builder
	b.WriteString(heading("CRIMINAL RECORDS CHECKED"))
	if len(records) == 0 {
		b.WriteString("No criminal records were checked during this session.\n")
		return b.String()
	}
	for _, r := range records {
		b.WriteString(formatRecord(r))
	}
	return b.String()
}

func speakerRole(roles map[string]models.Role, id string) string {
	if role, ok := roles[id]; ok {
		return string(role)
	}
	return "Unknown"
}

func transcript(entries []models.TranscriptEntry, roles map[string]models.Role) string {
	var b strings.Builder
	b.WriteString(heading("SESSION TRANSCRIPT"))
	if len(entries) == 0 {
		b.WriteString("No transcript was recorded during this session.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "[Full verbatim transcript of proceedings - %d statements recorded]\n\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "[%d] [%s] %s (%s):\n    %s\n\n",
			i+1, e.Timestamp.UTC().Format(time.RFC3339), e.SpeakerName, speakerRole(roles, e.SpeakerID), e.Text)
	}
	return b.String()
}

func evidence(files []models.EvidenceFile) string {
	var b strings.Builder
	b.WriteString(heading("EVIDENCE PRESENTED"))
	if len(files) == 0 {
		b.WriteString("No documentary evidence was submitted during this session.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Total Evidence Documents Submitted: %d\n\n", len(files))
	for i, f := range files {
		searchable := "not searchable"
		if f.Searchable {
			searchable = fmt.Sprintf("indexed in %d passages", f.Chunks)
		}
		fmt.Fprintf(&b, "EXHIBIT %d:\n  Document Name: %s\n  File Type: %s\n  Size: %d bytes, %s\n\n",
			i+1, f.Label, f.MimeType, f.Size, searchable)
	}
	return b.String()
}

func footer(generated time.Time) string {
	var b strings.Builder
	b.WriteString(heading("AUTHENTICATION & SIGNATURES"))
	b.WriteString("I hereby certify that this is a true and accurate record of the\nproceedings held on the date mentioned above.\n\n")
	b.WriteString("Presiding Judge:\n\nSignature: _________________________  Date: _______________\n\n")
	b.WriteString("Court Clerk/Reporter:\n\nSignature: _________________________  Date: _______________\n")
	b.WriteString(heading("CERTIFICATION"))
	b.WriteString("This report was generated automatically from the session transcript,\nsubmitted evidence and criminal background data. It must be reviewed\nby authorized court personnel before being filed.\n\n")
	fmt.Fprintf(&b, "Generated On: %s\n", formatTime(generated))
	b.WriteString(heading("END OF REPORT"))
	return b.String()
}

// material is what the summarizer reads: the transcript, cut to a budget,
// followed by the evidence and record listings.
func material(in Input, roles map[string]models.Role) string {
	var t strings.Builder
	for _, e := range in.Session.Transcript {
		fmt.Fprintf(&t, "[%s] %s (%s): %s\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.SpeakerName, speakerRole(roles, e.SpeakerID), e.Text)
	}
	transcriptText := t.String()
	if r := []rune(transcriptText); len(r) > summaryBudget {
		transcriptText = string(r[:summaryBudget])
	}
	if transcriptText == "" {
		transcriptText = "No transcript recorded.\n"
	}

	var b strings.Builder
	b.WriteString("SESSION TRANSCRIPT:\n")
	b.WriteString(transcriptText)
	b.WriteString("\nEVIDENCE DOCUMENTS PRESENTED:\n")
	if len(in.Evidence) == 0 {
		b.WriteString("No evidence documents were submitted.\n")
	}
	for _, f := range in.Evidence {
		fmt.Fprintf(&b, "• Document: %s\n  Type: %s\n", f.Label, f.MimeType)
	}
	b.WriteString("\nCRIMINAL RECORDS CHECKED:\n")
	if len(in.Records) == 0 {
		b.WriteString("No criminal background checks were performed.\n")
	}
	for _, r := range in.Records {
		b.WriteString(formatRecord(r))
	}
	return b.String()
}

func summary(ctx context.Context, in Input, roles map[string]models.Role, summarizer Summarizer) string {
	if summarizer == nil {
		return summaryFallback
	}
	text, err := summarizer.Summarize(ctx, material(in, roles))
	if err != nil || strings.TrimSpace(text) == "" {
		zap.S().Warnw("report summary unavailable", "meeting_id", in.Session.ID, "error", err)
		return summaryFallback
	}
	return strings.TrimSpace(text)
}
