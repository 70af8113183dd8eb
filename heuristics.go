package oppex

import (
	"regexp"
	"strings"
)

// The heuristic record parser infers opportunity fields from free text. Each
// semantic field has its own ordered cascade of rules evaluated by a single
// first-match-wins runner, so precedence is data, not control flow. Every
// extractor tolerates empty input and returns "" rather than failing: an
// absent field is a normal outcome of heuristic extraction.

// captureRule is one step of a cascade: a pattern and the capture group to
// return when it matches. Group 0 returns the whole match.
type captureRule struct {
	re    *regexp.Regexp
	group int
}

// firstCapture runs a cascade over text and returns the first rule's
// trimmed capture. Rules are ordered most specific first; do not reorder.
func firstCapture(rules []captureRule, text string) string {
	if text == "" {
		return ""
	}
	for _, rule := range rules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil || rule.group >= len(m) {
			continue
		}
		if got := strings.TrimSpace(m[rule.group]); got != "" {
			return got
		}
	}
	return ""
}

var companyTitleRules = []captureRule{
	{regexp.MustCompile(`(?i)\bat\s+([^-]+)`), 1},
	{regexp.MustCompile(`(?i)\bchez\s+([^-]+)`), 1},
	{regexp.MustCompile(`(?i)([^-]+)\s*-\s*job`), 1},
}

var companyBodyRules = []captureRule{
	{regexp.MustCompile(`(?i)recrute\s+([^.]+)`), 1},
	{regexp.MustCompile(`(?i)recrutement\s+([^.]+)`), 1},
	{regexp.MustCompile(`(?i)société\s+([^.]+)`), 1},
	{regexp.MustCompile(`(?i)entreprise\s+([^.]+)`), 1},
	{regexp.MustCompile(`(?i)chez\s+([^.]+)`), 1},
}

// CompanyFromTitle pulls an employer name out of a posting title, matching
// "Engineer at Acme", "Développeur chez Acme" and "Acme - job offer" shapes.
func CompanyFromTitle(title string) string {
	return firstCapture(companyTitleRules, title)
}

// CompanyFromText pulls an employer name out of body text using the French
// recruitment phrasings common on the target sites.
func CompanyFromText(text string) string {
	return firstCapture(companyBodyRules, text)
}

// CompanyFromHost derives a fallback employer name from a hostname:
// the second-to-last dot segment, capitalized. "jobs.acme.co" -> "Acme".
func CompanyFromHost(host string) string {
	if host == "" {
		return ""
	}
	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

var locationContextRules = []captureRule{
	{regexp.MustCompile(`(?i)location[:\s]+([^,.\n]+)`), 1},
	{regexp.MustCompile(`(?i)based in ([^,.\n]+)`), 1},
	{regexp.MustCompile(`(?i)([^,.\n]+),\s*(france|morocco|tunisia|algeria)`), 1},
}

var locationTitleRules = []captureRule{
	{regexp.MustCompile(`(?i)béni mellal`), 0},
	{regexp.MustCompile(`(?i)casablanca`), 0},
	{regexp.MustCompile(`(?i)rabat`), 0},
	{regexp.MustCompile(`(?i)marrakech`), 0},
	{regexp.MustCompile(`(?i)fès`), 0},
	{regexp.MustCompile(`(?i)tanger`), 0},
	{regexp.MustCompile(`(?i)agadir`), 0},
	{regexp.MustCompile(`(?i)([a-zA-ZÀ-ÿ\s]+)\s*-\s*emploi`), 1},
}

// LocationFromText pulls a location from description/context text.
func LocationFromText(text string) string {
	return firstCapture(locationContextRules, text)
}

// LocationFromTitle pulls a location from a posting title, first against
// known city literals, then the "<Place> - emploi" shape.
func LocationFromTitle(title string) string {
	return firstCapture(locationTitleRules, title)
}

var salaryRe = regexp.MustCompile(`(?i)\$[\d,]+(?:\s*-\s*\$[\d,]+)?(?:\s*(?:per|/)\s*(?:hour|year|month))?`)

// SalaryFromText finds a currency-styled salary or salary range anywhere in
// the page text.
func SalaryFromText(text string) string {
	return salaryRe.FindString(text)
}

// keywordBucket names a value plus the keywords whose presence selects it.
type keywordBucket struct {
	value    string
	keywords []string
}

// matchBucket returns the first bucket any of whose keywords appears in the
// lower-cased text. Bucket order is precedence; no match returns "".
func matchBucket(buckets []keywordBucket, text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.value
			}
		}
	}
	return ""
}

var jobTypeBuckets = []keywordBucket{
	{"full-time", []string{"full time", "full-time", "fulltime", "temps plein"}},
	{"part-time", []string{"part time", "part-time", "parttime", "temps partiel"}},
	{"contract", []string{"contract", "contractor", "freelance", "contrat"}},
	{"temporary", []string{"temporary", "temp", "seasonal"}},
	{"internship", []string{"internship", "intern", "stage"}},
}

// JobTypeFromText classifies the employment type from page text, bilingual
// EN/FR keyword buckets, first bucket wins.
func JobTypeFromText(text string) string {
	return matchBucket(jobTypeBuckets, text)
}

var experienceBuckets = []keywordBucket{
	{"Senior", []string{"senior", "lead", "principal", "5+ years", "7+ years", "expérimenté"}},
	{"Mid", []string{"mid level", "mid-level", "experienced", "2-5 years", "3-7 years"}},
	{"Entry", []string{"entry level", "junior", "graduate", "trainee", "débutant"}},
}

// ExperienceFromText classifies seniority. Senior outranks Mid outranks
// Entry; a page matching nothing leaves the field unset -- there is
// deliberately no Entry default.
func ExperienceFromText(text string) string {
	return matchBucket(experienceBuckets, text)
}

var remoteKeywords = []string{
	"remote", "work from home", "telecommute", "wfh",
	"télétravail", "à distance", "home office",
}

// IsRemote reports whether the text signals a remote-friendly position.
func IsRemote(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range remoteKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// maxTags caps how many skill tags a record carries.
const maxTags = 5

// skillVocabulary is the fixed skill/industry vocabulary matched against
// title+description text. Order is preserved in the output.
var skillVocabulary = []string{
	"JavaScript", "Python", "Java", "React", "Node.js", "SQL", "HTML", "CSS",
	"TypeScript", "Angular", "Vue.js", "PHP", "C++", "C#", ".NET", "Ruby",
	"Go", "Rust", "Swift", "Kotlin", "Docker", "Kubernetes", "AWS", "Azure",
	"MongoDB", "PostgreSQL", "MySQL", "Redis", "Git", "Linux",
}

// TagsFromText intersects the skill vocabulary with the combined title and
// description text, vocabulary order preserved, capped at 5 entries.
func TagsFromText(title, description string) []string {
	text := strings.ToLower(title + " " + description)
	var tags []string
	for _, skill := range skillVocabulary {
		if strings.Contains(text, strings.ToLower(skill)) {
			tags = append(tags, skill)
			if len(tags) == maxTags {
				break
			}
		}
	}
	return tags
}

var bracketPrefixRe = regexp.MustCompile(`\[.*?\]\s*`)

// CleanTitle strips bracketed company prefixes like "[Acme] Engineer" and
// surrounding whitespace. An all-bracket title comes back unchanged rather
// than empty.
func CleanTitle(title string) string {
	cleaned := strings.TrimSpace(bracketPrefixRe.ReplaceAllString(title, ""))
	if cleaned == "" {
		return strings.TrimSpace(title)
	}
	return cleaned
}

// ParseHeuristics runs every cascade over a document's text plus the
// narrower context text around one candidate item and returns the partial
// record. documentText carries page-wide signals (salary, job type,
// experience, remote); contextText carries the item-local ones (company,
// location).
func ParseHeuristics(documentText, contextText string) JobData {
	job := JobData{}
	job.Company = CompanyFromText(contextText)
	if job.Company == "" {
		job.Company = CompanyFromText(documentText)
	}
	job.Location = LocationFromText(contextText)
	job.SalaryRange = SalaryFromText(documentText)
	job.JobType = JobTypeFromText(documentText)
	job.ExperienceLevel = ExperienceFromText(documentText)
	job.RemoteWork = IsRemote(documentText) || IsRemote(contextText)
	job.Tags = TagsFromText("", contextText)
	return job
}
