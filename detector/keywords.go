package detector

import "strings"

var medicineQueryKeywords = []string{
	"paracip", "paracetamol", "aspirin", "ibuprofen", "medicine", "medication",
	"drug", "tablet", "capsule", "syrup", "what is", "tell me about",
	"azithromycin", "cetirizine", "metformin", "diclofenac", "nimesulide",
	"aceclofenac", "amoxycillin", "glimepiride", "pantoprazole", "omeprazole",
	"atorvastatin", "losartan", "cyra", "domperidone", "rabeprazole",
}

var detailKeywords = []string{
	"detailed", "details", "explain in detail", "comprehensive", "elaborate",
	"side effects", "interactions", "dosage", "dose", "how much",
	"precautions", "warnings", "contraindications", "tell me everything",
}

// IsMedicineQuery reports whether text asks about a medicine.
func IsMedicineQuery(text string) bool {
	return containsAny(strings.ToLower(text), medicineQueryKeywords)
}

// WantsDetails reports whether the user asked for a long answer.
func WantsDetails(text string) bool {
	return containsAny(strings.ToLower(text), detailKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
