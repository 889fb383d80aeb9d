package generate

import "strings"

// FallbackAnswer returns a canned draft for when the model service is not
// reachable. It is deterministic in the question text.
func FallbackAnswer(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "security"):
		return "We maintain a comprehensive security program covering access control, encryption of data " +
			"in transit and at rest, continuous monitoring and regular third-party assessments. " +
			"Our policies are reviewed annually and staff complete mandatory security training. " +
			"Detailed documentation of our controls is available on request."
	case strings.Contains(q, "experience"):
		return "Our team has delivered comparable engagements for organizations of similar size and complexity. " +
			"We bring experienced project leadership, proven delivery methods and references from recent clients, " +
			"which we are happy to provide on request."
	case strings.Contains(q, "timeline"):
		return "We propose a phased timeline beginning with discovery and planning, followed by implementation, " +
			"testing and go-live support. A detailed schedule with milestones will be agreed with your team " +
			"during project kickoff."
	case strings.Contains(q, "cost"), strings.Contains(q, "price"):
		return "Our pricing is structured to be transparent and competitive, with costs broken down by phase " +
			"and deliverable. A detailed quotation reflecting your final scope and volumes will be provided " +
			"with our formal proposal."
	default:
		return "Thank you for this question. We understand the importance of this requirement and will provide " +
			"a detailed response tailored to your needs. Our team is available to discuss this item further."
	}
}
