package rules

// Default returns the built-in tables, compiled and ready to use.
func Default() *Rules {
	r := defaultTables()
	if err := r.Compile(); err != nil {
		// Built-in patterns are constant; a failure here is a programming error.
		panic(err)
	}
	return r
}

func defaultTables() *Rules {
	return &Rules{
		DomesticCountryCode: "55",
		ElevenDigitForeign:  "1",
		AreaCodes: []string{
			"11", "12", "13", "14", "15", "16", "17", "18", "19",
			"21", "22", "24", "27", "28",
			"31", "32", "33", "34", "35", "37", "38",
			"41", "42", "43", "44", "45", "46", "47", "48", "49",
			"51", "53", "54", "55",
			"61", "62", "63", "64", "65", "66", "67", "68", "69",
			"71", "73", "74", "75", "77", "79",
			"81", "82", "83", "84", "85", "86", "87", "88", "89",
			"91", "92", "93", "94", "95", "96", "97", "98", "99",
		},
		CountryCodes: []string{
			"351", "598", "595", "591", "593",
			"44", "34", "33", "39", "49", "54", "56", "57", "58", "51", "52", "61", "81",
		},
		FakePhonePrefixes: []string{"644690"},
		FakePhoneIDs:      []string{"6446901002"},

		EmailTLDs: []string{
			"com", "br", "net", "org", "io", "co", "me", "info", "biz", "edu", "gov",
			"app", "dev", "adv", "med", "pro", "online", "site", "store", "shop",
			"tech", "digital", "art", "pt", "us", "uk", "es", "ar", "cl", "mx",
		},
		FileExtensions: []string{
			"js", "css", "png", "jpg", "jpeg", "gif", "svg", "webp", "ico",
			"woff", "woff2", "ttf", "eot", "map", "json", "xml", "mp4", "webm", "pdf",
		},
		GenericSenders: []string{"noreply", "no-reply", "donotreply", "mailer", "daemon"},

		Titles: []string{
			"nutricionista", "nutri", "dra", "dr", "doutora", "doutor",
			"psicologa", "psicologo", "psi", "fisioterapeuta", "fisio",
			"dentista", "odonto", "advogada", "advogado", "adv",
			"arquiteta", "arquiteto", "arq", "professora", "professor", "prof",
			"personal", "coach", "medica", "medico", "enfermeira", "enf",
			"fonoaudiologa", "fono", "esteticista", "estetica", "terapeuta",
		},
		FirstNames: []string{
			"ana", "maria", "juliana", "mariana", "fernanda", "camila", "amanda",
			"beatriz", "bruna", "carolina", "patricia", "aline", "larissa", "leticia",
			"gabriela", "isabela", "rafaela", "renata", "vanessa", "luana", "paula",
			"joao", "jose", "pedro", "lucas", "gabriel", "rafael", "bruno", "felipe",
			"gustavo", "rodrigo", "thiago", "carlos", "marcos", "paulo", "andre",
			"ricardo", "eduardo", "daniel", "fernando", "leonardo", "matheus",
		},

		WebsiteDenylist: []string{
			"instagram.com", "facebook.com", "fb.com", "tiktok.com", "youtube.com",
			"youtu.be", "twitter.com", "x.com", "threads.net", "linkedin.com",
			"linktr.ee", "wa.me", "whatsapp.com",
		},

		Neighborhoods: []Place{
			{Neighborhood: "Barra da Tijuca", City: "Rio de Janeiro", State: "RJ", Aliases: []string{"barra rj"}},
			{Neighborhood: "Copacabana", City: "Rio de Janeiro", State: "RJ"},
			{Neighborhood: "Ipanema", City: "Rio de Janeiro", State: "RJ"},
			{Neighborhood: "Leblon", City: "Rio de Janeiro", State: "RJ"},
			{Neighborhood: "Botafogo", City: "Rio de Janeiro", State: "RJ"},
			{Neighborhood: "Recreio dos Bandeirantes", City: "Rio de Janeiro", State: "RJ", Aliases: []string{"recreio"}},
			{Neighborhood: "Moema", City: "São Paulo", State: "SP"},
			{Neighborhood: "Pinheiros", City: "São Paulo", State: "SP"},
			{Neighborhood: "Vila Madalena", City: "São Paulo", State: "SP"},
			{Neighborhood: "Itaim Bibi", City: "São Paulo", State: "SP"},
			{Neighborhood: "Vila Mariana", City: "São Paulo", State: "SP"},
			{Neighborhood: "Tatuapé", City: "São Paulo", State: "SP"},
			{Neighborhood: "Savassi", City: "Belo Horizonte", State: "MG"},
			{Neighborhood: "Batel", City: "Curitiba", State: "PR"},
			{Neighborhood: "Moinhos de Vento", City: "Porto Alegre", State: "RS"},
		},
		Cities: []Place{
			{City: "São Paulo", State: "SP", Aliases: []string{"sampa"}},
			{City: "Rio de Janeiro", State: "RJ", Aliases: []string{"riodejaneirorj"}},
			{City: "Belo Horizonte", State: "MG", Aliases: []string{"bh"}},
			{City: "Curitiba", State: "PR"},
			{City: "Porto Alegre", State: "RS", Aliases: []string{"poa"}},
			{City: "Salvador", State: "BA"},
			{City: "Recife", State: "PE"},
			{City: "Fortaleza", State: "CE"},
			{City: "Brasília", State: "DF", Aliases: []string{"bsb"}},
			{City: "Goiânia", State: "GO"},
			{City: "Florianópolis", State: "SC", Aliases: []string{"floripa"}},
			{City: "Campinas", State: "SP"},
			{City: "Niterói", State: "RJ"},
			{City: "Manaus", State: "AM"},
			{City: "Belém", State: "PA"},
			{City: "Vitória", State: "ES"},
			{City: "Natal", State: "RN"},
			{City: "João Pessoa", State: "PB"},
			{City: "Maceió", State: "AL"},
			{City: "Cuiabá", State: "MT"},
			{City: "Campo Grande", State: "MS"},
			{City: "Santos", State: "SP"},
			{City: "Ribeirão Preto", State: "SP"},
			{City: "Londrina", State: "PR"},
			{City: "Joinville", State: "SC"},
			{City: "Uberlândia", State: "MG"},
		},

		Consent: []ConsentRule{
			{Tag: "partnership", Patterns: []string{`(?i)\b(parcerias?|collabs?|publis?|publicidade|partnerships?)\b`}},
			{Tag: "quote_request", Patterns: []string{`(?i)\b(or[çc]amentos?|cota[çc][ãa]o|quotes?)\b`}},
			{Tag: "consultation", Patterns: []string{`(?i)\b(consultas?|agende|agendamentos?|atendimentos?)\b`}},
			{Tag: "scheduling_link", Patterns: []string{`(?i)(calendly\.com|cal\.com/|doctoralia\.com|simplesagenda|booksy\.com)`}},
			{Tag: "messaging_link", Patterns: []string{`(?i)(wa\.me/|api\.whatsapp\.com|whatsapp\.com/send)`}},
		},
	}
}
