package session

import (
	"fmt"
	"strings"
)

// Command categories group the /ayuda listing.
const (
	categoryGame      = "partida"
	categoryCharacter = "personaje"
	categoryCombat    = "combate"
)

// Command is one slash command the player can type at the prompt.
type Command struct {
	// Name is the canonical command name, without the leading slash.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Help is the short help text shown by /ayuda.
	Help string
	// Category groups the command in the help listing.
	Category string
}

// builtinCommands returns every command the session understands.
func builtinCommands() []Command {
	return []Command{
		{Name: "ayuda", Aliases: []string{"?"}, Help: "Muestra esta ayuda", Category: categoryGame},
		{Name: "guardar", Help: "Guarda la partida ahora", Category: categoryGame},
		{Name: "salir", Help: "Guarda la partida y termina la sesión", Category: categoryGame},
		{Name: "historial", Help: "Muestra las últimas entradas del diario", Category: categoryGame},
		{Name: "reglas", Help: "Activa o desactiva el detalle de tiradas", Category: categoryGame},

		{Name: "estado", Aliases: []string{"est"}, Help: "Muestra la hoja de personaje, o el combate si hay uno", Category: categoryCharacter},
		{Name: "inventario", Aliases: []string{"inv", "i"}, Help: "Muestra equipo, objetos y monedas", Category: categoryCharacter},
		{Name: "hp", Help: "Muestra los puntos de golpe", Category: categoryCharacter},
		{Name: "descansar", Aliases: []string{"descanso"}, Help: "Descanso largo: recupera HP, ranuras y dados de golpe", Category: categoryCharacter},
		{Name: "subir_nivel", Help: "Aplica el nivel pendiente tras ganar experiencia", Category: categoryCharacter},

		{Name: "encuentro", Aliases: []string{"enc"}, Help: "Inicia un combate: /encuentro goblin goblin orco", Category: categoryCombat},
		{Name: "combate", Aliases: []string{"com"}, Help: "Muestra el estado del combate", Category: categoryCombat},
		{Name: "turno", Help: "Indica de quién es el turno", Category: categoryCombat},
		{Name: "pasar", Aliases: []string{"paso"}, Help: "Pasa el turno sin actuar", Category: categoryCombat},
		{Name: "huir", Help: "Abandona el combate", Category: categoryCombat},
	}
}

// commandRegistry maps command names and aliases to their definitions.
type commandRegistry struct {
	commands map[string]*Command
	aliases  map[string]string
	order    []string
}

// newCommandRegistry indexes the given commands.
//
// Precondition: no two commands may share a canonical name or alias.
func newCommandRegistry(cmds []Command) (*commandRegistry, error) {
	r := &commandRegistry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}
	for i := range cmds {
		cmd := &cmds[i]
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("duplicate command name: %q", cmd.Name)
		}
		if _, exists := r.aliases[cmd.Name]; exists {
			return nil, fmt.Errorf("command name %q conflicts with an existing alias", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		r.order = append(r.order, cmd.Name)

		for _, alias := range cmd.Aliases {
			if _, exists := r.commands[alias]; exists {
				return nil, fmt.Errorf("alias %q conflicts with command name %q", alias, alias)
			}
			if existing, exists := r.aliases[alias]; exists {
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, existing, cmd.Name)
			}
			r.aliases[alias] = cmd.Name
		}
	}
	return r, nil
}

// defaultCommands indexes the builtin command set.
func defaultCommands() *commandRegistry {
	r, err := newCommandRegistry(builtinCommands())
	if err != nil {
		panic(fmt.Sprintf("building command registry: %v", err))
	}
	return r
}

// Resolve looks a command up by name or alias.
func (r *commandRegistry) Resolve(name string) (*Command, bool) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[name]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Commands returns all commands in registration order.
func (r *commandRegistry) Commands() []*Command {
	result := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.commands[name])
	}
	return result
}

// cmdInput is one parsed slash command line.
type cmdInput struct {
	// name is the typed command, lowercased, without the slash.
	name string
	// args are the remaining words.
	args []string
	// raw is the untouched text after the command word.
	raw string
}

// parseSlash splits "/encuentro goblin orco" into a command name and its
// arguments. Lines that do not start with a slash are not commands.
func parseSlash(line string) (cmdInput, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return cmdInput{}, false
	}
	line = line[1:]
	if line == "" {
		return cmdInput{}, false
	}

	name := line
	raw := ""
	if idx := strings.IndexByte(line, ' '); idx >= 0 {
		name = line[:idx]
		raw = strings.TrimSpace(line[idx+1:])
	}

	in := cmdInput{name: strings.ToLower(name), raw: raw}
	if raw != "" {
		in.args = strings.Fields(raw)
	}
	return in, true
}
