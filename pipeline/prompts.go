package pipeline

const (
	greetingReply  = "Hello! How can I help you with medicine information today?"
	noPriceReply   = "Sorry, no matching price information found."
	noContextText  = "No relevant information found in the database."
	generatorError = "Sorry, an error occurred during answer generation: %v"
	cheapestReply  = "The cheapest medicine(s) for your query: %s at %s%s"

	disclaimer = "Note: If your question pertains to symptoms or medical advice, " +
		"please remember I am an AI assistant and not a healthcare professional. " +
		"Always consult a qualified healthcare provider for diagnosis and treatment.\n\n"

	summaryPrompt = "You are a helpful assistant. Use only the following context to answer the user's question. Be concise.\n\n" +
		"Context:\n%s\n\nUser's Question:\n%s\n\nAnswer:"

	crossReferencePrompt = "The following medicine(s) were found in the report and database.\n%s\n\n" +
		"User's Question:\n%s\n\nAnswer:"

	contextOnlyPrompt = "Use only the following context to answer the user's question.\n\n" +
		"Context:\n%s\n\nUser's Question:\n%s\n\nAnswer:"

	// disclaimer, medicine preamble, context, question
	answerPrompt = "%s%sYou are a helpful medical assistant.\n" +
		"Use only the following context to answer the user's question. Be concise. If information is missing, say so.\n\n" +
		"Context:\n%s\n\nUser's Question:\n%s\n\nAnswer:"
)

// Prompts of the rag strategy, keyed by whether dataset text was usable and
// whether the user asked for details.
const (
	ragDetailed = `You are a knowledgeable medical assistant. Based on the following medical database information, provide a comprehensive and detailed response about: %s

Medical Database Information:
%s

Provide thorough information including dosages, uses, precautions, side effects, and interactions. Be detailed but well-organized.`

	ragBrief = `You are a friendly medical assistant. Based on the following medical database information, provide a brief, conversational response about: %s

Medical Database Information:
%s

Give a concise answer in 2-3 sentences maximum. Just explain what it is and its main use. Don't include detailed dosages, side effects, or precautions unless specifically asked. End by mentioning they can ask for more details if needed.`

	generalDetailed = `You are a knowledgeable medical assistant. The user is asking about: %s

Please provide helpful general medical information based on your knowledge. Include what you know about dosages, uses, precautions, and interactions when applicable.

If you're not certain about specific details, mention that the user should consult healthcare professionals or official medical sources.`

	generalBrief = `You are a friendly medical assistant. The user is asking about: %s

Please provide a brief, helpful response based on your general medical knowledge. Keep it conversational and mention they can ask for more details if needed. If you're not certain about specific details, suggest consulting healthcare professionals.`

	conversational = `You are a friendly medical assistant. Respond conversationally to: %s

Be helpful and informative using your general medical knowledge. Keep the tone natural and conversational. If they need more details, let them know they can ask for more specific information.`

	plainMedicine = "You are a knowledgeable medical assistant. Provide helpful information about the medical question: %s. " +
		"Use your general medical knowledge and mention when users should consult healthcare professionals for specific advice."

	plainConversational = "You are a friendly medical assistant. Respond conversationally to this health-related question: %s"
)
