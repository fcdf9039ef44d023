// Package vocab centralizes the Spanish vocabulary the normalizer matches
// player input against: intent verbs, skill verbs, generic action phrases,
// weapon synonyms and marker terms. Adding a synonym is a data change here
// (or in a YAML override file), never a normalizer change.
package vocab

// Intent classifies what kind of action a verb announces.
type Intent string

// Intent values.
const (
	IntentAttack  Intent = "ataque"
	IntentSpell   Intent = "conjuro"
	IntentMove    Intent = "movimiento"
	IntentSkill   Intent = "habilidad"
	IntentGeneric Intent = "accion"
	IntentItem    Intent = "objeto"
)

// VerbIntent maps one verb to an intent.
type VerbIntent struct {
	Verb   string `yaml:"verb"`
	Intent Intent `yaml:"intent"`
}

// VerbSkill maps one verb to a specific skill.
type VerbSkill struct {
	Verb  string `yaml:"verb"`
	Skill string `yaml:"skill"`
}

// PhraseAction maps a phrase (matched as substring) to a generic action id.
type PhraseAction struct {
	Phrase string `yaml:"phrase"`
	Action string `yaml:"action"`
}

// WeaponSynonym maps a colloquial weapon term to compendium candidates, most
// common first.
type WeaponSynonym struct {
	Term       string   `yaml:"term"`
	Candidates []string `yaml:"candidates"`
}

// Table holds every lookup list. Entry order is match priority: the first
// entry that matches wins, so override entries are prepended.
type Table struct {
	IntentVerbs         []VerbIntent
	SkillVerbs          []VerbSkill
	GenericActions      []PhraseAction
	WeaponSynonyms      []WeaponSynonym
	UnarmedTerms        []string
	AdvantageMarkers    []string
	DisadvantageMarkers []string
	RangedMarkers       []string
	PotionTerms         []string
}

// Default returns the built-in Spanish table.
func Default() *Table {
	return &Table{
		IntentVerbs: []VerbIntent{
			// ataque
			{"ataco", IntentAttack}, {"atacar", IntentAttack}, {"ataque", IntentAttack},
			{"golpeo", IntentAttack}, {"golpear", IntentAttack},
			{"pego", IntentAttack}, {"pegar", IntentAttack},
			{"disparo", IntentAttack}, {"disparar", IntentAttack},
			{"corto", IntentAttack}, {"cortar", IntentAttack},
			{"apuñalo", IntentAttack}, {"apuñalar", IntentAttack},
			{"hiero", IntentAttack}, {"herir", IntentAttack},

			// movimiento
			{"muevo", IntentMove}, {"moverme", IntentMove}, {"mover", IntentMove},
			{"camino", IntentMove}, {"caminar", IntentMove},
			{"corro", IntentMove}, {"correr", IntentMove},
			{"acerco", IntentMove}, {"acercarme", IntentMove},
			{"alejo", IntentMove}, {"alejarme", IntentMove},
			{"desplazo", IntentMove}, {"desplazarme", IntentMove},
			{"voy", IntentMove}, {"ir", IntentMove},
			{"avanzo", IntentMove}, {"avanzar", IntentMove},
			{"retrocedo", IntentMove}, {"retroceder", IntentMove},

			// conjuro (generic casting verbs; named spells match earlier by name)
			{"conjuro", IntentSpell}, {"conjurar", IntentSpell},
			{"hechizo", IntentSpell}, {"magia", IntentSpell},

			// habilidad
			{"escucho", IntentSkill}, {"escuchar", IntentSkill},
			{"oigo", IntentSkill}, {"oir", IntentSkill},
			{"miro", IntentSkill}, {"mirar", IntentSkill},
			{"busco", IntentSkill}, {"buscar", IntentSkill},
			{"examino", IntentSkill}, {"examinar", IntentSkill},
			{"investigo", IntentSkill}, {"investigar", IntentSkill},
			{"persuado", IntentSkill}, {"persuadir", IntentSkill}, {"persuadirlo", IntentSkill},
			{"convenzo", IntentSkill}, {"convencer", IntentSkill},
			{"intimido", IntentSkill}, {"intimidar", IntentSkill},
			{"amenazo", IntentSkill}, {"amenazar", IntentSkill},
			{"miento", IntentSkill}, {"mentir", IntentSkill},
			{"engaño", IntentSkill}, {"engañar", IntentSkill},
			{"trepo", IntentSkill}, {"trepar", IntentSkill},
			{"escalo", IntentSkill}, {"escalar", IntentSkill},
			{"salto", IntentSkill}, {"saltar", IntentSkill},
			{"nado", IntentSkill}, {"nadar", IntentSkill},

			// objeto
			{"bebo", IntentItem}, {"beber", IntentItem},
			{"tomo", IntentItem}, {"tomar", IntentItem},
		},

		SkillVerbs: []VerbSkill{
			// percepcion
			{"escucho", "percepcion"}, {"escuchar", "percepcion"},
			{"oigo", "percepcion"}, {"oir", "percepcion"},
			{"miro", "percepcion"}, {"mirar", "percepcion"},
			{"observo", "percepcion"}, {"observar", "percepcion"},
			{"vigilo", "percepcion"}, {"vigilar", "percepcion"},
			{"oteo", "percepcion"}, {"otear", "percepcion"},

			// investigacion
			{"investigo", "investigacion"}, {"investigar", "investigacion"},
			{"examino", "investigacion"}, {"examinar", "investigacion"},
			{"analizo", "investigacion"}, {"analizar", "investigacion"},
			{"estudio", "investigacion"}, {"estudiar", "investigacion"},
			{"inspecciono", "investigacion"}, {"inspeccionar", "investigacion"},

			// sigilo
			{"escondo", "sigilo"}, {"esconderme", "sigilo"},
			{"oculto", "sigilo"}, {"ocultarme", "sigilo"},
			{"sigiloso", "sigilo"}, {"sigilosamente", "sigilo"},

			// atletismo
			{"trepo", "atletismo"}, {"trepar", "atletismo"},
			{"escalo", "atletismo"}, {"escalar", "atletismo"},
			{"salto", "atletismo"}, {"saltar", "atletismo"},
			{"nado", "atletismo"}, {"nadar", "atletismo"},
			{"empujo", "atletismo"}, {"empujar", "atletismo"},
			{"forcejeo", "atletismo"}, {"forcejear", "atletismo"},

			// acrobacias
			{"ruedo", "acrobacias"}, {"rodar", "acrobacias"},
			{"voltereta", "acrobacias"},
			{"equilibrio", "acrobacias"}, {"equilibrarme", "acrobacias"},
			{"pirueta", "acrobacias"},

			// persuasion
			{"persuado", "persuasion"}, {"persuadir", "persuasion"}, {"persuadirlo", "persuasion"},
			{"convenzo", "persuasion"}, {"convencer", "persuasion"},
			{"negocio", "persuasion"}, {"negociar", "persuasion"},
			{"regateo", "persuasion"}, {"regatear", "persuasion"},
			{"halago", "persuasion"}, {"halagar", "persuasion"},

			// engaño
			{"miento", "engaño"}, {"mentir", "engaño"},
			{"engaño", "engaño"}, {"engañar", "engaño"},
			{"finjo", "engaño"}, {"fingir", "engaño"},
			{"faroleo", "engaño"}, {"farolear", "engaño"},
			{"timo", "engaño"}, {"timar", "engaño"},

			// intimidacion
			{"intimido", "intimidacion"}, {"intimidar", "intimidacion"},
			{"amenazo", "intimidacion"}, {"amenazar", "intimidacion"},
			{"asusto", "intimidacion"}, {"asustar", "intimidacion"},
			{"aterrorizo", "intimidacion"}, {"aterrorizar", "intimidacion"},

			// medicina
			{"curo", "medicina"}, {"curar", "medicina"},
			{"estabilizo", "medicina"}, {"estabilizar", "medicina"},
			{"diagnostico", "medicina"}, {"diagnosticar", "medicina"},
			{"vendo", "medicina"}, {"vendar", "medicina"},

			// supervivencia
			{"rastro", "supervivencia"}, {"rastrear", "supervivencia"},
			{"sigo", "supervivencia"}, {"seguir", "supervivencia"},
			{"cazo", "supervivencia"}, {"cazar", "supervivencia"},
			{"forrajeo", "supervivencia"}, {"forrajear", "supervivencia"},

			// trato_animales
			{"amanso", "trato_animales"}, {"amansar", "trato_animales"},
			{"domestico", "trato_animales"}, {"domesticar", "trato_animales"},
			{"calmo", "trato_animales"}, {"calmar", "trato_animales"},
		},

		GenericActions: []PhraseAction{
			// dash
			{"dash", "dash"}, {"carrera", "dash"}, {"sprint", "dash"},
			{"correr rápido", "dash"}, {"correr rapido", "dash"},
			{"corro todo lo que puedo", "dash"},

			// dodge
			{"dodge", "dodge"}, {"esquivar", "dodge"}, {"esquiva", "dodge"},
			{"esquivo", "dodge"}, {"evadir", "dodge"},
			{"me pongo a esquivar", "dodge"}, {"preparo para esquivar", "dodge"},

			// disengage
			{"disengage", "disengage"}, {"desenganche", "disengage"},
			{"retirada", "disengage"}, {"retirarse", "disengage"},
			{"retirarme", "disengage"}, {"me retiro", "disengage"},
			{"retrocedo sin provocar", "disengage"},

			// help
			{"help", "help"}, {"ayudar", "help"}, {"ayuda", "help"},
			{"ayudo", "help"}, {"asistir", "help"}, {"asisto", "help"},
			{"echo una mano", "help"},

			// hide
			{"hide", "hide"}, {"esconder", "hide"}, {"esconderse", "hide"},
			{"esconderme", "hide"}, {"me escondo", "hide"},
			{"ocultar", "hide"}, {"ocultarme", "hide"}, {"me oculto", "hide"},

			// search
			{"search", "search"}, {"buscar", "search"},
			{"registrar", "search"}, {"registro", "search"},

			// ready
			{"ready", "ready"}, {"preparar", "ready"}, {"preparo", "ready"},
			{"preparar acción", "ready"}, {"preparar accion", "ready"},
			{"preparo una acción", "ready"},
		},

		WeaponSynonyms: []WeaponSynonym{
			{"espada", []string{"espada_larga", "espada_corta"}},
			{"espadón", []string{"espada_larga"}},
			{"sable", []string{"espada_corta"}},
			{"daga", []string{"daga"}},
			{"cuchillo", []string{"daga"}},
			{"puñal", []string{"daga"}},
			{"maza", []string{"maza"}},
			{"martillo", []string{"maza"}},
			{"hacha", []string{"hacha_mano"}},
			{"arco", []string{"arco_corto"}},
			{"ballesta", []string{"ballesta_ligera"}},
			{"bastón", []string{"baston"}},
			{"vara", []string{"baston"}},
			{"palo", []string{"baston"}},
		},

		UnarmedTerms: []string{
			"desarmado", "puño", "puñetazo", "patada", "cabezazo",
			"golpe", "mano", "codo", "rodilla", "sin arma",
		},

		AdvantageMarkers:    []string{"ventaja"},
		DisadvantageMarkers: []string{"desventaja"},
		RangedMarkers:       []string{"arco", "ballesta", "distancia", "disparar", "disparo"},
		PotionTerms:         []string{"pocion", "poción"},
	}
}
