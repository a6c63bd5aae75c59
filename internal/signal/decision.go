package signal

import "github.com/codetrail-dev/codetrail/internal/historychunk"

// decisionClassPrecedence breaks majority-vote ties: decision beats
// routine beats unknown, per §4.7's "ties broken by order decision >
// routine > unknown".
var decisionClassPrecedence = map[historychunk.DecisionClass]int{
	historychunk.DecisionDecision: 0,
	historychunk.DecisionRoutine:  1,
	historychunk.DecisionUnknown:  2,
}

// decisionClassBySHA builds the SHA -> decision-class map every detector
// needs to compute a dominant decision class, from the commit_summary
// chunks in the index.
func decisionClassBySHA(chunks []historychunk.Chunk) map[string]historychunk.DecisionClass {
	out := make(map[string]historychunk.DecisionClass, len(chunks))
	for _, c := range chunks {
		if c.ChunkType == historychunk.TypeCommitSummary {
			out[c.SHA] = c.DecisionClass
		}
	}
	return out
}

// dominantDecisionClass returns the majority decision class among shas,
// ties broken by decisionClassPrecedence. shas not present in bySHA are
// treated as unknown.
func dominantDecisionClass(shas []string, bySHA map[string]historychunk.DecisionClass) historychunk.DecisionClass {
	counts := map[historychunk.DecisionClass]int{}
	for _, sha := range shas {
		cls, ok := bySHA[sha]
		if !ok {
			cls = historychunk.DecisionUnknown
		}
		counts[cls]++
	}
	best := historychunk.DecisionUnknown
	bestCount := -1
	for cls, n := range counts {
		if n > bestCount || (n == bestCount && decisionClassPrecedence[cls] < decisionClassPrecedence[best]) {
			best = cls
			bestCount = n
		}
	}
	return best
}
