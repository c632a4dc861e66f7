package prompt

const workerTemplate = `# WORKING DIRECTORY

{{.WalkDir}}

{{if .ContextFile -}}
# CONTEXT

{{.ContextFile}}

{{end -}}
{{if .WalkGoals -}}
# WALK GOALS

**{{.WalkTitle}}**

{{.WalkGoals}}

{{end -}}
# YOUR ISSUE

**{{.Issue.Slug}}** — {{.Issue.Title}}

{{if .ParentSlugs -}}
Derived from: {{range $i, $p := .ParentSlugs}}{{if $i}}, {{end}}{{$p}}{{end}}

{{end -}}
{{.Issue.Body}}

---

# PROTOCOL

When you are done with this issue, close it with the close command,
giving a one-line reason and an optional longer body. If you cannot
finish, leave it open and explain why in a comment.

You may:
- Append a comment to this issue at any time to record progress or a
  decision.
- Create derived issues (set their derived_from to this issue's slug)
  for follow-up work you discover but do not do now.
- Propose a memory (a short key/text fact) for the planner to review
  if you learn something that should outlive this issue.

## Git hygiene

Commit your work in small, reviewable steps with clear messages. Do
not leave uncommitted changes when you close the issue.

## Naming derived issues

Slugs must match ^[a-z0-9][a-z0-9-]*$ and be unique across the whole
walk (open and closed). Prefer a short noun phrase over a restatement
of the parent's slug.

{{if eq .Issue.Type "self-modification" -}}
## Self-modification

This issue may touch the driver's own source. If your change requires
the driver to restart to take effect, write the restart marker file
named in your environment instead of trying to restart anything
yourself.

{{end -}}
## Signalling

When you close this issue, set its signal to one of:
- routine — ordinary progress, nothing the planner needs to weigh specially.
- surprising — you found something that changes how the remaining work should be understood.
- pivotal — you found something that should change the walk's direction now, not at the next scheduled planning round.
`

const plannerTemplate = `# EPOCH {{.Snapshot.Epoch}}

{{if .Snapshot.Walk.Title -}}
# WALK: {{.Snapshot.Walk.Title}}

{{end -}}
{{if .Snapshot.Walk.Body -}}
{{.Snapshot.Walk.Body}}

{{end -}}
# RECENTLY CLOSED

{{if .RecentClosed -}}
{{range .RecentClosed -}}
## Epoch {{.Epoch}}

| slug | title | signal | bytes |
|---|---|---|---|
{{range .Issues -}}
| {{.Slug}} | {{truncate .Title 60}} | {{if .Signal}}{{.Signal}}{{else}}routine{{end}} | - |
{{end}}
{{end -}}
{{else -}}
(none yet)

{{end}}
# OPEN ISSUES

{{if .Snapshot.Open -}}
| slug | title | type | priority | parent |
|---|---|---|---|---|
{{range .Snapshot.Open -}}
| {{.Slug}} | {{truncate .Title 60}} | {{.Type}} | {{.Priority}} | {{if .DerivedFrom}}{{index .DerivedFrom 0}}{{end}} |
{{end}}
{{else -}}
(none)

{{end}}
# MEMORIES

{{if .Snapshot.Memories -}}
{{range .Snapshot.Memories -}}
{{if .AliveUntil -}}
- ~~{{.Key}}: {{.Text}}~~ (retired at epoch {{.AliveUntil}})
{{else -}}
- {{.Key}}: {{.Text}}
{{end -}}
{{end}}
{{else -}}
(none)

{{end}}
# PENDING PROPOSALS

{{if .Snapshot.Proposals -}}
| key | text | proposed by | epoch |
|---|---|---|---|
{{range .Snapshot.Proposals -}}
| {{.Key}} | {{truncate .Text 80}} | {{.ProposedBy}} | {{.Epoch}} |
{{end}}
{{else -}}
(none)

{{end}}
# CONTEXT PRESSURE

planning threshold: {{bytesize .PlanningThreshold}}

{{if .Snapshot.ExpansionStats -}}
| type | count | median | p75 | total |
|---|---|---|---|---|
{{range .Snapshot.ExpansionStats -}}
| {{if .Type}}{{.Type}}{{else}}(overall){{end}} | {{.Count}} | {{printf "%.2f" .Median}} | {{printf "%.2f" .P75}} | {{printf "%.2f" .Total}} |
{{end}}
{{else -}}
(no closed issues yet)

{{end}}
# YOUR PROTOCOL

1. Assess progress against the walk's goals.
2. Explore the open issues and recently closed issues above.
3. Expand: critically evaluate what the closed issues actually established, not just what they claimed.
3.5. Meta-evaluate: is the walk itself still pursuing a productive direction, or does the approach need to change?
4. Create follow-up issues, ordered by criticality, staying within the remaining byte budget implied by the context-pressure section.
5. Verify your plan is consistent, then write the planning result file.

Write your result as frontmatter with keys outcome (one of completed,
created_issues, no_work_found) and reason, followed by any free-text
body you want recorded.
`
