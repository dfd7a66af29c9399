package prompt

import (
	"fmt"
	"math"
	"strings"
)

// RefineOp is a closed refinement operation. Adding one means adding a case
// to every switch below; the compiler keeps the family honest.
type RefineOp int

const (
	OpDefault RefineOp = iota
	OpConcise
	OpDetailed
	OpPolish
	OpVariations
	OpEncouraging
	OpFormal
	OpContextMerge
)

// Length factors per operation. Detailed accepts a variant factor within
// [1.15, 1.20]; everything else is fixed.
const (
	conciseFactor     = 0.80
	detailedFactorMin = 1.15
	detailedFactorMax = 1.20
)

// ParseOp maps an API operation tag to a RefineOp. Unknown tags fall back
// to the default rewrite, mirroring how an unknown tone falls back to the
// open midpoint.
func ParseOp(s string) RefineOp {
	switch s {
	case "concise":
		return OpConcise
	case "detailed":
		return OpDetailed
	case "polish":
		return OpPolish
	case "variations":
		return OpVariations
	case "encouraging":
		return OpEncouraging
	case "formal":
		return OpFormal
	case "context-merge":
		return OpContextMerge
	}
	return OpDefault
}

// String returns the API tag for the operation.
func (op RefineOp) String() string {
	switch op {
	case OpConcise:
		return "concise"
	case OpDetailed:
		return "detailed"
	case OpPolish:
		return "polish"
	case OpVariations:
		return "variations"
	case OpEncouraging:
		return "encouraging"
	case OpFormal:
		return "formal"
	case OpContextMerge:
		return "context-merge"
	}
	return "default"
}

// RefineRequest parameterizes one refinement prompt.
type RefineRequest struct {
	Op       RefineOp
	Original string
	// Context is only read by OpContextMerge.
	Context string
	// DetailedFactor tunes OpDetailed within [1.15, 1.20]; zero means 1.15.
	DetailedFactor float64
}

// WordCount counts whitespace-separated words, the unit every length
// target is computed in.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// TargetWords computes the refined text's word budget as a share of the
// original's word count.
func TargetWords(req RefineRequest) int {
	return int(math.Round(float64(WordCount(req.Original)) * req.factor()))
}

func (req RefineRequest) factor() float64 {
	switch req.Op {
	case OpConcise:
		return conciseFactor
	case OpDetailed:
		f := req.DetailedFactor
		if f < detailedFactorMin || f > detailedFactorMax {
			return detailedFactorMin
		}
		return f
	default:
		return 1.0
	}
}

// BuildRefinement renders the parameterized refinement prompt for the
// operation. The original text is embedded verbatim between markers and the
// output contract is strict plain text.
func BuildRefinement(req RefineRequest) string {
	var sb strings.Builder

	sb.WriteString(req.instruction())
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Longueur cible : environ %d mots.\n", TargetWords(req))
	if req.Op == OpContextMerge && strings.TrimSpace(req.Context) != "" {
		fmt.Fprintf(&sb, "Éléments à intégrer : %s\n", strings.TrimSpace(req.Context))
	}
	fmt.Fprintf(&sb, "Texte original :\n---\n%s\n---\n", req.Original)
	sb.WriteString("Réponds uniquement avec le texte final, en texte brut, sans préambule ni commentaire.")
	return sb.String()
}

func (req RefineRequest) instruction() string {
	switch req.Op {
	case OpConcise:
		return "Raccourcis cette appréciation en conservant l'essentiel du propos."
	case OpDetailed:
		return "Développe cette appréciation en précisant les points déjà évoqués, sans inventer de faits nouveaux."
	case OpPolish:
		return "Améliore la formulation de cette appréciation : fluidité, vocabulaire, ponctuation. Le fond ne change pas."
	case OpVariations:
		return "Propose une reformulation différente de cette appréciation, de sens équivalent."
	case OpEncouraging:
		return "Réécris cette appréciation sur un ton plus encourageant, sans masquer les difficultés."
	case OpFormal:
		return "Réécris cette appréciation dans un registre plus soutenu, adapté à un bulletin officiel."
	case OpContextMerge:
		return "Réécris cette appréciation en y intégrant naturellement les éléments de contexte fournis."
	}
	return "Réécris cette appréciation."
}
