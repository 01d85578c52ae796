// Package prompt assembles the instruction sent to the completion service.
package prompt

import "strings"

type Input struct {
	Departments string
	Regulation  string
	Feedback    string
	Query       string
}

const template = `### Instructions
You are an expert on the organization and its duties. Using the [Reference material], analyze the [Legislative data request] and respond in JSON only.

[Reference material]
[Department list]
{{departments}}

[Regulation]
{{regulation}}

[Past corrections]
{{feedback}}

[Legislative data request]
{{query}}

### Criteria
1. Summary: a single natural paragraph covering the whole request, in formal reporting register. Do not number items.
2. Keywords: the 3 most important terms.
3. Department classification: the 3 most suitable departments, most likely first.

### Output format (JSON only)
{
    "summary": "A request from the office of a committee member asking for the status of drone operations and the related budget execution over the last five years.",
    "keywords": ["keyword1", "keyword2", "keyword3"],
    "predictions": [
        {"rank": 1, "department": "department name", "reason": "reason"},
        {"rank": 2, "department": "department name", "reason": "reason"},
        {"rank": 3, "department": "department name", "reason": "reason"}
    ]
}
Answer with the JSON object only, without any text before or after it.
`

// Compose substitutes all placeholders in one pass, so placeholder text that
// appears inside the inputs is left untouched.
func Compose(in Input) string {
	r := strings.NewReplacer(
		"{{departments}}", in.Departments,
		"{{regulation}}", in.Regulation,
		"{{feedback}}", in.Feedback,
		"{{query}}", in.Query,
	)
	return r.Replace(template)
}
