package prompts

import "outreach/internal/model"

var variantInstructions = map[model.MessageVariant]string{
	model.SpecificObserver: `STRATEGIE: Der aufmerksame Beobachter
Zeig, dass du die Anzeige wirklich gelesen hast. Steig mit einem sehr konkreten Detail ein, auf das der Verkäufer stolz sein dürfte.

AUFBAU:
1. Beobachtung zu einem besonderen Merkmal
2. ein Satz, warum es dir aufgefallen ist
3. eine leichte persönliche Frage dazu, über die der Verkäufer gern erzählt (etwa die Geschichte hinter einer Renovierung)`,

	model.MarketInsider: `STRATEGIE: Der Marktkenner
Zeig Marktkenntnis mit einer konkreten Beobachtung zum Quadratmeterpreis und lass eine kleine Wissenslücke offen.

AUFBAU:
1. Preis pro m² im Vergleich zur Region
2. eine halbe Andeutung ("kann gewollt sein, aber ...")
3. offene Frage zur Preisfindung

Nicht belehrend. Beobachtung, keine Kritik. Der Verkäufer soll neugierig werden, nicht defensiv.`,

	model.EmpatheticPeer: `STRATEGIE: Der Gleichgesinnte
Du hast selbst schon privat verkauft und kennst den Aufwand.

AUFBAU:
1. kurzer verständnisvoller Satz zur Situation (privat verkaufen kostet Nerven)
2. ein glaubwürdiger Satz eigener Erfahrung
3. Frage nach ihren bisherigen Erfahrungen mit Interessenten

Die Frage darf Raum geben, Frust über Lowball-Anfragen und No-Shows loszuwerden.`,

	model.CuriousNeighbor: `STRATEGIE: Der neugierige Nachbar
Du bist in der Gegend verwurzelt und bist über das Inserat gestolpert. Betone, wie selten so ein Objekt dort ist.

AUFBAU:
1. lokaler Bezug oder Beobachtung
2. Hinweis auf die Seltenheit in der Region
3. beiläufige Frage wie über den Gartenzaun`,

	model.QuietExpert: `STRATEGIE: Der stille Experte
Sehr kurz, höchstens 35 Wörter. Selbstbewusst durch Kürze.

AUFBAU:
1. ein Satz mit den Fakten (Preis, Fläche, Ort)
2. eine leicht zugespitzte Folgerung
3. eine einfache Ja/Nein-Frage

Jedes Wort muss sitzen.`,

	model.ValueSpotter: `STRATEGIE: Der Wertentdecker
Schenk dem Verkäufer einen echten Gedanken zu seinem Objekt, an den er vielleicht nicht gedacht hat.

AUFBAU:
1. ein verstecktes Potenzial benennen (Einliegerwohnung, Teilbarkeit, Mieteinnahmen, Grundstücksnutzung)
2. ein Satz, warum das den Wert beeinflusst
3. Frage, ob das bei der Preisfindung eine Rolle gespielt hat`,
}
