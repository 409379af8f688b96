package fallback

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/medicare-ai/medassist/common/logger"
	"github.com/medicare-ai/medassist/metrics"
)

// Layer names the rule that produced a fallback answer.
type Layer string

const (
	LayerMedicineFact Layer = "medicine_fact"
	LayerHealthFact   Layer = "health_fact"
	LayerGreeting     Layer = "greeting"
	LayerMedicine     Layer = "medicine"
	LayerSymptom      Layer = "symptom"
	LayerQuestion     Layer = "question"
	LayerProvider     Layer = "provider"
	LayerMenu         Layer = "menu"
)

// Caller is the provider registry as seen by the responder.
type Caller interface {
	CallWithFallback(ctx context.Context, prompt string, maxTokens int) (string, string, error)
}

type fact struct {
	topic string
	text  string
}

var medicineFacts = []fact{
	{"paracetamol", "Paracetamol (Acetaminophen) is a pain reliever and fever reducer. Standard dose: 500-1000mg every 4-6 hours. Maximum daily: 4000mg. Used for headaches, fever, mild pain."},
	{"aspirin", "Aspirin is a pain reliever and blood thinner. Dose: 325-650mg every 4 hours. Used for pain, fever, heart disease prevention. Avoid in children."},
	{"ibuprofen", "Ibuprofen is an anti-inflammatory. Dose: 200-400mg every 4-6 hours. Max daily: 1200mg. Used for pain, fever, inflammation."},
	{"cetirizine", "Cetirizine is an antihistamine. Dose: 10mg once daily. Used for allergies, hives, allergic reactions."},
	{"metformin", "Metformin manages blood sugar in diabetes. Dose: 500-1000mg twice daily with meals. First-line treatment for Type 2 diabetes."},
	{"azithromycin", "Azithromycin is an antibiotic. Dose: 500mg once daily for 3-5 days. Used for bacterial infections like pneumonia, bronchitis."},
	{"diclofenac", "Diclofenac is an anti-inflammatory pain reliever. Dose: 50mg 2-3 times daily. Used for arthritis, muscle pain, inflammation."},
	{"omeprazole", "Omeprazole reduces stomach acid. Dose: 20-40mg once daily. Used for heartburn, acid reflux, stomach ulcers."},
}

var healthFacts = []fact{
	{"fever", "Fever is your body's natural response to infection. Rest, stay hydrated, and consider fever reducers like paracetamol if uncomfortable. See a doctor if fever exceeds 103°F or persists."},
	{"headache", "Headaches can be caused by stress, dehydration, or tension. Try rest, hydration, and gentle massage. Persistent or severe headaches should be evaluated by a healthcare provider."},
	{"cold", "Common colds are viral infections. Rest, fluids, and over-the-counter medications can help symptoms. Most colds resolve in 7-10 days."},
	{"cough", "Coughs can be dry or productive. Stay hydrated, use honey for throat relief, and see a doctor if persistent or accompanied by fever."},
	{"diabetes", "Diabetes is a condition where blood sugar levels are too high. Management includes diet, exercise, medication, and regular monitoring."},
	{"blood pressure", "Blood pressure measures the force of blood against artery walls. Normal is typically less than 120/80 mmHg. Regular monitoring is important."},
	{"exercise", "Regular exercise improves cardiovascular health, strengthens muscles, and boosts mental well-being. Aim for 150 minutes of moderate activity weekly."},
	{"diet", "A balanced diet includes fruits, vegetables, whole grains, lean proteins, and healthy fats. Limit processed foods, sugar, and excess sodium."},
	{"hormones", "Hormones are chemical messengers that regulate various body functions including growth, metabolism, reproduction, and mood."},
	{"capsule", "Capsules are a common dosage form for medications, containing active ingredients in a gelatin or vegetarian shell."},
}

var (
	greetingPattern = regexp.MustCompile(`\b(?:hi|hello|hey|good morning|good evening)\b`)

	medicineKeywords = []string{"capsule", "tablet", "syrup", "medicine", "medication", "drug", "dose", "dosage", "side effects", "increase", "hormones"}
	symptomKeywords  = []string{"i have", "symptoms", "pain", "headache", "sick", "feel", "hurt", "ache", "sore"}
	questionPhrases  = []string{"what is", "how to", "why do", "should i", "is it normal", "can you explain"}
)

const (
	greetingReply = "Hello! I'm your MediCare AI Assistant. I can help with medicine information, health questions, and medical guidance. What would you like to know?"

	medicineReply = `I don't have specific information about the medication mentioned in your question: "%s"

However, I can provide some general guidance:
• For hormone-related questions, it's best to consult an endocrinologist or your healthcare provider
• Many medications can affect hormone levels - both prescribed and over-the-counter
• Always check with your doctor or pharmacist about potential hormonal effects of any medication
• If you're concerned about hormonal changes, discuss this with your healthcare provider

For specific medical advice about medications and hormones, please consult healthcare professionals.`

	symptomPrompt = "Someone has these symptoms: %s. What general medical advice can you give?"
	symptomReply  = "I understand you're experiencing symptoms. While I can provide general information, it's important to consult a healthcare professional for proper evaluation and treatment. If symptoms are severe or persistent, please seek medical attention."

	questionPrompt = "Medical question: %s"
	questionReply  = "I can help with medical questions, but I don't have specific information about '%s'. I'd recommend consulting a healthcare provider or checking reputable medical sources for accurate information."

	menuReply = `I'm here to help with medical and health questions! I can assist with:

💊 **Medicine information** (dosages, uses, side effects)
🏥 **Health conditions** (symptoms, treatments, prevention)
📋 **General wellness** (diet, exercise, lifestyle)
📄 **PDF analysis** (upload medical documents for review)

Try asking specific questions like:
• "What is paracetamol used for?"
• "How to manage diabetes?"
• "What causes high blood pressure?"

What would you like to know?`
)

// Responder produces an answer when the normal path failed. It walks a
// fixed list of layers and always ends with a non-empty reply.
type Responder struct {
	caller    Caller
	maxTokens int
}

// New creates a responder. caller may be nil, in which case every provider
// layer uses its static reply.
func New(caller Caller, maxTokens int) *Responder {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Responder{caller: caller, maxTokens: maxTokens}
}

// Respond returns the reply and the layer that produced it.
func (r *Responder) Respond(ctx context.Context, query string) (string, Layer) {
	text, layer := r.respond(ctx, query)
	metrics.IncFallback(string(layer))
	return text, layer
}

func (r *Responder) respond(ctx context.Context, query string) (string, Layer) {
	lower := strings.ToLower(query)

	for _, f := range medicineFacts {
		if strings.Contains(lower, f.topic) {
			return "💊 " + f.text, LayerMedicineFact
		}
	}
	for _, f := range healthFacts {
		if strings.Contains(lower, f.topic) {
			return "🏥 " + f.text, LayerHealthFact
		}
	}
	if greetingPattern.MatchString(lower) {
		return greetingReply, LayerGreeting
	}
	if containsAny(lower, medicineKeywords) {
		if out, ok := r.ask(ctx, query); ok {
			return out, LayerMedicine
		}
		return fmt.Sprintf(medicineReply, query), LayerMedicine
	}
	if containsAny(lower, symptomKeywords) {
		if out, ok := r.ask(ctx, fmt.Sprintf(symptomPrompt, query)); ok {
			return out, LayerSymptom
		}
		return symptomReply, LayerSymptom
	}
	if containsAny(lower, questionPhrases) {
		if out, ok := r.ask(ctx, fmt.Sprintf(questionPrompt, query)); ok {
			return out, LayerQuestion
		}
		return fmt.Sprintf(questionReply, query), LayerQuestion
	}
	if out, ok := r.ask(ctx, query); ok {
		return out, LayerProvider
	}
	return menuReply, LayerMenu
}

func (r *Responder) ask(ctx context.Context, prompt string) (string, bool) {
	if r.caller == nil {
		return "", false
	}
	out, name, err := r.caller.CallWithFallback(ctx, prompt, r.maxTokens)
	if err != nil {
		logger.Warnf("fallback: inference providers failed: %v", err)
		return "", false
	}
	if strings.TrimSpace(out) == "" {
		logger.Warnf("fallback: empty answer from %s", name)
		return "", false
	}
	return out, true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
