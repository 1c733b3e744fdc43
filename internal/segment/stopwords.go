package segment

// stopwords are excluded from importance scoring; common function
// words plus the filler tokens speech models tend to emit.
var stopwords = map[string]bool{
	"a": true, "about": true, "after": true, "again": true, "all": true,
	"also": true, "an": true, "and": true, "any": true, "are": true,
	"as": true, "at": true, "be": true, "because": true, "been": true,
	"before": true, "being": true, "but": true, "by": true, "can": true,
	"could": true, "did": true, "do": true, "does": true, "doing": true,
	"down": true, "during": true, "each": true, "few": true, "for": true,
	"from": true, "further": true, "get": true, "go": true, "going": true,
	"got": true, "had": true, "has": true, "have": true, "having": true,
	"he": true, "her": true, "here": true, "him": true, "his": true,
	"how": true, "if": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "just": true, "like": true, "me": true,
	"more": true, "most": true, "my": true, "no": true, "not": true,
	"now": true, "of": true, "off": true, "on": true, "once": true,
	"only": true, "or": true, "other": true, "our": true, "out": true,
	"over": true, "own": true, "re": true, "right": true, "said": true,
	"same": true, "she": true, "so": true, "some": true, "such": true,
	"than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "to": true, "too": true, "uh": true,
	"um": true, "under": true, "until": true, "up": true, "very": true,
	"was": true, "we": true, "well": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "who": true,
	"will": true, "with": true, "would": true, "yeah": true, "you": true,
	"your": true,
}
