package refs

const parsePromptTemplate = `Given the References section of a document, extract the reference entries and return ONLY a valid JSON array:

[
  {
    "original_reference": "<full reference text>",
    "urls": ["<url1>", "<url2>"],
    "type": "Research Paper | News Article | YouTube Video | General Web Reference | Unknown"
  }
]

Rules:
- Do NOT hallucinate URLs. Only extract URLs that actually exist in the text.
- Return ONLY valid JSON. No comments, explanations, or text outside the JSON.
- Preserve exact reference text as it appears.
- Classify using domain detection:
  * doi/arxiv/ieee/acm/springer/nature/wiley -> "Research Paper"
  * bbc/cnn/nytimes/guardian/reuters -> "News Article"
  * youtube.com/youtu.be -> "YouTube Video"
  * Other URLs -> "General Web Reference"
  * No URL found -> "Unknown"
- Extract each distinct reference entry separately.
- Do not merge separate references.

References text:
`

func BuildParsePrompt(sectionText string) string {
	return parsePromptTemplate + sectionText + "\n\nReturn ONLY the JSON array:"
}

func BuildClassifyPrompt(referenceText string) string {
	return "Classify the following bibliography entry as exactly one of: " +
		"Research Paper, News Article, YouTube Video, General Web Reference, Unknown. " +
		"Return only the label.\n\nEntry:\n" + referenceText
}

func BuildSuggestURLPrompt(referenceText string) string {
	return "Suggest the single most likely canonical URL for the following bibliography entry. " +
		"Return only the URL, or an empty response if you are not confident.\n\nEntry:\n" + referenceText
}
