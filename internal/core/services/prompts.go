package services

// SystemPrompt instructs the model to answer strictly from the supplied
// context and to refuse with the exact refusal phrase otherwise. The
// refusal detection in domain.IsModelRefusal depends on that phrasing.
const SystemPrompt = `You are a careful assistant that answers questions using ONLY the provided context.
Rules:
- Use only facts from the context. Do not use outside knowledge.
- If the context does not contain the answer, reply exactly:
  I don’t know based on the provided documents.
- Keep answers short and factual.`

// RefusalAnswer is the canonical refusal returned when retrieved context
// fails the sufficiency guardrail.
const RefusalAnswer = "I don’t know based on the provided documents."
