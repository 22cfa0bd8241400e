package diet

// This file stores the prompts sent to the text generation service.

// ExplanationPromptTemplate asks for a short personalised rationale for one meal.
// Placeholders: food item, meal category, age, gender, comma-joined conditions.
const ExplanationPromptTemplate = `
    You are a professional Indian dietitian.
    Explain in 2-3 sentences why including %s for %s 
    is beneficial for someone of age %d, gender %s, 
    with these health conditions: %s.
    Keep it simple, friendly, and personalized.
    `

// ExplanationUnavailable is the placeholder used when the service fails.
const ExplanationUnavailable = "Explanation not available (%v)"
