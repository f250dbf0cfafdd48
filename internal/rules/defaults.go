package rules

// Default returns the built-in tables.
func Default() Tables {
	return Tables{
		PropertyFamilies: []PropertyFamily{
			{Type: "Haus", Keywords: []string{"haus", "einfamilienhaus", "doppelhaushälfte", "reihenhaus", "bungalow", "villa"}},
			{Type: "Wohnung", Keywords: []string{"wohnung", "eigentumswohnung", "apartment", "penthouse", "maisonette"}},
			{Type: "Grundstück", Keywords: []string{"grundstück", "baugrundstück", "bauland"}},
			{Type: "Mehrfamilienhaus", Keywords: []string{"mehrfamilienhaus"}},
		},
		UniqueFeatureKeywords: []string{
			"Wintergarten", "Holzofen", "Kaminofen", "Kamin", "Einliegerwohnung",
			"Sauna", "Pool", "Schwimmbad", "Dachterrasse", "Fußbodenheizung",
			"Solar", "Photovoltaik", "Wärmepumpe", "Glasfaser", "Altbau",
			"Stuck", "Parkett", "Dielenboden", "Fachwerk", "Erker",
			"Galerie", "Loft", "Penthouse", "Maisonette", "Jugendstil",
			"Gewächshaus", "Gartenhaus", "Carport", "Doppelgarage", "Aufzug",
			"Fahrstuhl", "Smart Home", "Faltanlage", "Schiebetür", "Panoramafenster",
			"Einbauküche",
		},
		LifestyleKeywords: []string{
			"Familie", "Kinder", "Kind", "ruhig", "Ruhe", "Natur", "Wald", "See",
			"Fluss", "Park", "Grün", "zentral", "Innenstadt", "Stadtmitte",
			"fußläufig", "Spielplatz", "Schule", "Kita", "Kindergarten", "Hund",
			"Haustier", "Garten", "Terrasse",
		},
		RenovationKeywords: []string{
			"renoviert", "saniert", "modernisiert", "kernsaniert", "Neubau",
			"neuwertig", "Erstbezug", "neues Dach", "neue Heizung", "neue Fenster",
			"neue Küche", "neue Bäder", "neue Leitungen", "Vollsanierung",
		},
		UrgencyKeywords: []string{
			"zeitnah", "schnell", "sofort", "baldig", "dringend", "Umzug",
			"beruflich", "Ausland",
		},
		EmotionalWords: []string{
			"herzblut", "liebe", "traum", "paradies", "schmuckstück", "perle",
			"juwel", "besonders",
		},
		AmenityKeywords: []string{
			"Terrasse", "Badewanne", "Gäste-WC", "Keller", "Dachboden", "Garage",
			"Stellplatz", "Garten", "Balkon", "Aufzug", "Einbauküche",
			"Fußbodenheizung", "Klimaanlage",
		},
		InfrastructureKeywords: []string{
			"Glasfaser", "Schule", "Kita", "Kindergarten", "Einkauf", "ÖPNV",
			"Bushaltestelle", "Straßenbahn", "U-Bahn", "S-Bahn",
		},
		LocationHints: []LocationHint{
			{Pattern: `am\s+wald|im\s+wald|waldrand|waldnähe`, Label: "Waldnähe"},
			{Pattern: `ruhige\s+(?:lage|straße|gegend|nachbarschaft)`, Label: "ruhige Lage"},
			{Pattern: `zentral|innenstadt|stadtmitte|stadtzentrum`, Label: "zentrale Lage"},
			{Pattern: `am\s+see|seenähe|seeblick`, Label: "Seenähe"},
			{Pattern: `am\s+fluss|flussnähe`, Label: "Flussnähe"},
			{Pattern: `am\s+park|parknähe`, Label: "Parknähe"},
			{Pattern: `aussicht|ausblick|panorama|fernblick`, Label: "Aussichtslage"},
			{Pattern: `sonnig|südlage|süd-?west`, Label: "Sonnenlage"},
		},
		InformalMarkers: []string{
			"perfekt", "super", "top", "toll", "mega", "cool", "geil", "traumhaft",
			"Traum", "Paradies", "Oase", "Schmuckstück", "Juwel", "Perle", "...",
		},
		FormalMarkers: []string{
			"Exposé", "Objektbeschreibung", "zzgl.", "inkl.", "Energieausweis",
			"Energiekennwert", "Baurechtlich", "Wohneinheiten", "Mietrendite",
		},
		HiddenValueKeywords: []string{
			"einliegerwohnung", "teilbar", "ausbau", "dachgeschoss", "umbau",
			"potenzial", "möglich", "separater eingang",
		},
		TitleEmotionWords: []string{"familie", "traum", "paradies", "idylle"},
		ForbiddenWords: []string{
			"Makler", "Maklerin", "Vermittlung", "vermitteln", "Provision", "Honorar", "Courtage",
			"Angebot", "anbieten", "Dienstleistung", "Service", "kostenlos", "unverbindlich",
			"gratis", "Vermarktung", "vermarkten",
			"Zusammenarbeit", "zusammenarbeiten", "Partner", "Partnerschaft",
			"jahrelange Erfahrung", "langjährige Erfahrung", "Erfahrung im Immobilienbereich",
			"Expertise", "Experte", "Expertin",
			"Netzwerk", "Kaufinteressenten", "Kundenstamm", "Interessenten", "vorgemerkte Käufer",
			"Bewertung", "Wertermittlung", "Marktanalyse", "Exposé",
			"helfen", "unterstützen", "Unterstützung", "begleiten", "Begleitung",
		},
		ForbiddenPhrases: []string{
			"ich habe Ihr Inserat gesehen",
			"ich habe Ihre Anzeige gesehen",
			"ich bin auf Ihre Anzeige aufmerksam geworden",
			"ich bin auf Ihr Inserat aufmerksam geworden",
			"erlauben Sie mir",
			"gestatten Sie",
			"darf ich mich vorstellen",
			"ich würde gerne",
			"ich möchte mich vorstellen",
			"ich kontaktiere Sie",
			"Ihr Objekt",
		},
		ForbiddenOpeners: []string{
			"Hallo", "Guten Tag", "Guten Morgen", "Guten Abend", "Sehr geehrte",
			"Sehr geehrter", "Liebe ", "Lieber ", "Ich ", "Mein ", "Wir ",
		},
		ClosingGreetings: []string{
			"viele grüße", "liebe grüße", "mit freundlichen grüßen", "mfg", "lg",
			"beste grüße", "herzliche grüße",
		},
		PreamblePrefixes: []string{
			"Hier ist die Nachricht:", "Nachricht:", "Hier ist mein Vorschlag:",
		},
		AggressiveKeywords: []string{
			"spam", "melden", "anzeige", "gemeldet", "nerv", "lass mich in ruhe",
			"hör auf", "blockiert", "blockiere", "belästigung", "abmahnung",
			"anwalt", "polizei", "strafanzeige", "unverschämt",
		},
		PoliteNoKeywords: []string{
			"kein interesse", "nein danke", "nicht interessiert", "brauche keinen",
			"brauche keine", "bereits verkauft", "schon verkauft", "bitte keine",
			"keine weiteren",
		},
		PositiveKeywords: []string{
			"danke", "interessant", "gute frage", "stimmt", "ja,", "erzähl",
			"erzählen sie", "gerne", "klar", "genau",
		},
	}
}
