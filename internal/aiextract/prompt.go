package aiextract

import "strings"

// systemPrompt is stable across calls so providers that support prompt
// caching can reuse it.
const systemPrompt = `You extract contact details from Instagram biographies of Brazilian professionals.

Return ONLY a JSON object with exactly these keys:
- full_name: the person's real name without professional titles (Dra., Dr., Nutricionista, Psicóloga, ...), or null
- email: an email address written in the text, or null
- phone: a phone or WhatsApp number written in the text, digits only, or null

Rules:
- Only report values that literally appear in the biography. Never guess.
- A street address, clinic name, city or slogan is not a name.
- Obfuscated emails such as "ana [at] gmail [dot] com" should be returned in normal form.
- Do not include extra keys or commentary.`

func buildPrompt(bio string) string {
	return "Biography:\n" + strings.TrimSpace(bio)
}
