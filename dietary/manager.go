package dietary

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"menuadmin/db"
	"menuadmin/model"
)

const (
	bannerWidth = 50
	prompt      = "> "
	pauseText   = "Press Enter to continue..."

	// maxLineBytes bounds a single line of operator input.
	maxLineBytes = 1 << 20
)

type action int

const (
	actionContinue action = iota
	actionBack
	actionExit // leave from the restaurant menu, with the farewell
	actionQuit // leave from the option menu, without it
)

// choices is a numbered, alphabetical list the operator picks from by
// 1-based number or exact name.
type choices struct {
	byName map[string]model.ID
	sorted []string

	noun    string // used in "Invalid <noun> number"
	display string // used in "<display> 'x' not found"
}

func newChoices(byName map[string]model.ID, noun, display string) *choices {
	sorted := make([]string, 0, len(byName))
	for name := range byName {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return &choices{byName: byName, sorted: sorted, noun: noun, display: display}
}

// resolve maps operator input to a name. A non-empty message means the input
// was rejected and should be shown to the operator.
func (c *choices) resolve(input string, log *zap.SugaredLogger) (name, message string) {
	if isNumber(input) {
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(c.sorted) {
			log.Warnf("User provided invalid %s number: %s", c.noun, input)
			return "", fmt.Sprintf("Invalid %s number. Please enter 1-%d.", c.noun, len(c.sorted))
		}
		log.Infof("User selected %s #%s", c.noun, input)
		input = c.sorted[idx-1]
		log.Infof("Translated to %s name: '%s'", c.noun, input)
	}
	if _, ok := c.byName[input]; !ok {
		log.Warnf("%s '%s' not found in database", c.display, input)
		return "", fmt.Sprintf("%s '%s' not found.", c.display, input)
	}
	return input, ""
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isExit(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

type Manager struct {
	store db.Store
	log   *zap.SugaredLogger
	in    *bufio.Scanner
	out   io.Writer
	clear func(io.Writer)

	restaurants *choices
	options     *choices
	optionNames map[model.ID]string
}

type Option func(*Manager)

func WithInput(r io.Reader) Option {
	return func(m *Manager) { m.in = bufio.NewScanner(r) }
}

func WithOutput(w io.Writer) Option {
	return func(m *Manager) { m.out = w }
}

// WithClearScreen replaces the function called before each menu is drawn.
func WithClearScreen(f func(io.Writer)) Option {
	return func(m *Manager) { m.clear = f }
}

// New returns a Manager reading stdin and writing stdout unless overridden.
func New(store db.Store, log *zap.SugaredLogger, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		log:   log,
		in:    bufio.NewScanner(os.Stdin),
		out:   os.Stdout,
		clear: clearTerminal,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.in.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	return m
}

// clearTerminal clears w only when it is an interactive terminal.
func clearTerminal(w io.Writer) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return
	}
	fmt.Fprint(f, "\033[H\033[2J")
}

func (m *Manager) println(a ...any) {
	fmt.Fprintln(m.out, a...)
}

func (m *Manager) printf(format string, a ...any) {
	fmt.Fprintf(m.out, format, a...)
}

// readLine shows p and returns the trimmed reply; ok is false at end of input.
func (m *Manager) readLine(p string) (string, bool) {
	m.printf("%s", p)
	if !m.in.Scan() {
		m.println()
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

// inputErr reports a read failure other than end of input.
func (m *Manager) inputErr() error {
	err := m.in.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, bufio.ErrTooLong) {
		m.log.Errorf("Error reading input: line longer than %d bytes", maxLineBytes)
		m.printf("Error reading input: line longer than %d bytes\n", maxLineBytes)
	} else {
		m.log.Errorf("Error reading input: %v", err)
		m.println("Error reading input:", err)
	}
	return fmt.Errorf("reading input: %w", err)
}

// pause waits for Enter; false means input is exhausted.
func (m *Manager) pause() bool {
	_, ok := m.readLine(pauseText)
	return ok
}

// Load fetches the reference data. It reports false when there is nothing
// to manage.
func (m *Manager) Load(ctx context.Context) bool {
	m.log.Info("Fetching restaurants from database")
	restaurants, err := m.store.GetRestaurantMapByName(ctx)
	if err != nil {
		m.log.Errorf("Error fetching restaurants: %v", err)
		m.println("Error fetching restaurants:", err)
		restaurants = nil
	} else {
		m.log.Infof("Found %d restaurants", len(restaurants))
	}

	m.log.Info("Fetching dietary options from database")
	options, err := m.store.GetDietaryOptionMapByName(ctx)
	if err != nil {
		m.log.Errorf("Error fetching dietary options: %v", err)
		m.println("Error fetching dietary options:", err)
		options = nil
	} else {
		m.log.Infof("Found %d dietary options", len(options))
	}

	m.log.Info("Fetching existing restaurant-dietary option relationships")
	links, err := m.store.ListRestaurantDietaryOptions(ctx)
	if err != nil {
		m.log.Errorf("Error fetching existing relationships: %v", err)
		m.println("Error fetching existing relationships:", err)
	} else {
		m.log.Infof("Found %d existing relationships", len(links))
	}

	if len(restaurants) == 0 {
		m.log.Error("No restaurants found in the database")
		m.println("No restaurants found in the database. Please add restaurants first.")
		return false
	}
	if len(options) == 0 {
		m.log.Error("No dietary options found in the database")
		m.println("No dietary options found in the database. Please add dietary options first.")
		return false
	}

	m.restaurants = newChoices(restaurants, "restaurant", "Restaurant")
	m.options = newChoices(options, "option", "Dietary option")
	m.optionNames = make(map[model.ID]string, len(options))
	for name, id := range options {
		m.optionNames[id] = name
	}

	m.log.Infof("Successfully loaded %d restaurants and %d dietary options", len(restaurants), len(options))
	m.printf("Found %d restaurants and %d dietary options.\n", len(restaurants), len(options))
	return true
}

// Run loads the reference data and drives the interactive session until the
// operator exits, input ends or ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.log.Info("Starting Restaurant Dietary Options Manager")
	if !m.Load(ctx) {
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := m.selectRestaurant(ctx)
		if err := m.inputErr(); err != nil {
			return err
		}
		if next == actionQuit {
			return nil
		}
		if next == actionExit {
			break
		}
	}

	m.log.Info("Program completed successfully")
	m.println("Thank you for using the Restaurant Dietary Options Manager!")
	m.println("A log file has been created with all operations.")
	return nil
}

func (m *Manager) selectRestaurant(ctx context.Context) action {
	m.clear(m.out)
	m.println(strings.Repeat("=", bannerWidth))
	m.println("RESTAURANT DIETARY OPTIONS MANAGER")
	m.println(strings.Repeat("=", bannerWidth))

	m.println("\nAvailable restaurants:")
	for i, name := range m.restaurants.sorted {
		m.printf("%d. %s\n", i+1, name)
	}

	m.println("\nEnter restaurant name or number (or 'exit' to quit):")
	input, ok := m.readLine(prompt)
	if !ok {
		m.log.Info("Input closed, exiting program")
		return actionExit
	}
	if isExit(input) {
		m.log.Info("User selected to exit program")
		return actionExit
	}

	name, msg := m.restaurants.resolve(input, m.log)
	if msg != "" {
		m.println(msg)
		if !m.pause() {
			return actionExit
		}
		return actionContinue
	}
	m.log.Infof("Selected restaurant: '%s'", name)

	for {
		if ctx.Err() != nil {
			return actionContinue
		}
		switch m.manageRestaurant(ctx, name) {
		case actionBack:
			return actionContinue
		case actionExit:
			return actionQuit
		}
	}
}

// manageRestaurant runs one round of the option menu for a restaurant.
func (m *Manager) manageRestaurant(ctx context.Context, restaurant string) action {
	restaurantID := m.restaurants.byName[restaurant]

	m.clear(m.out)
	m.printf("Managing dietary options for: %s\n", restaurant)
	m.showCurrentOptions(ctx, restaurantID, restaurant)

	m.println("\nAvailable dietary options:")
	for i, name := range m.options.sorted {
		m.printf("%d. %s\n", i+1, name)
	}

	m.println("\nEnter dietary option name or number (or 'done' to go back, 'exit' to quit):")
	input, ok := m.readLine(prompt)
	if !ok {
		m.log.Info("Input closed, exiting program")
		return actionExit
	}
	if strings.EqualFold(input, "done") {
		m.log.Infof("Finished adding options to restaurant '%s'", restaurant)
		return actionBack
	}
	if isExit(input) {
		m.log.Info("User chose to exit program")
		return actionExit
	}

	option, msg := m.options.resolve(input, m.log)
	if msg != "" {
		m.println(msg)
		return m.pauseOrExit()
	}

	if m.addDietaryOption(ctx, restaurantID, m.options.byName[option], restaurant, option) {
		m.printf("Added '%s' to '%s'\n", option, restaurant)
		m.log.Infof("Successfully added '%s' to '%s'", option, restaurant)
	}
	return m.pauseOrExit()
}

func (m *Manager) pauseOrExit() action {
	if !m.pause() {
		return actionExit
	}
	return actionContinue
}

func (m *Manager) showCurrentOptions(ctx context.Context, restaurantID model.ID, restaurant string) {
	m.log.Infof("Fetching dietary options for restaurant '%s'", restaurant)
	ids, err := m.store.GetDietaryOptionIDsByRestaurant(ctx, restaurantID)
	if err != nil {
		m.log.Errorf("Error fetching dietary options for restaurant: %v", err)
		m.println("Error fetching dietary options for restaurant:", err)
		return
	}

	m.printf("\nCurrent dietary options for %s:\n", restaurant)
	if len(ids) == 0 {
		m.println("None")
		m.log.Infof("Restaurant '%s' has no dietary options", restaurant)
		return
	}
	var current []string
	for _, id := range ids {
		if name, ok := m.optionNames[id]; ok {
			current = append(current, name)
			m.printf("- %s\n", name)
		}
	}
	m.log.Infof("Restaurant '%s' has %d dietary options: %s", restaurant, len(current), strings.Join(current, ", "))
}

// addDietaryOption reports whether a new association was stored.
func (m *Manager) addDietaryOption(ctx context.Context, restaurantID, optionID model.ID, restaurant, option string) bool {
	m.log.Infof("Attempting to associate dietary option '%s' with restaurant '%s'", option, restaurant)

	err := db.AssociateDietaryOption(ctx, m.store, model.RestaurantDietaryOption{
		RestaurantID:    restaurantID,
		DietaryOptionID: optionID,
	})
	switch {
	case err == nil:
		m.log.Infof("Successfully added dietary option '%s' to restaurant '%s'", option, restaurant)
		return true
	case errors.Is(err, db.ErrAlreadyAssociated):
		m.log.Infof("Dietary option '%s' is already associated with restaurant '%s'", option, restaurant)
		m.println("This dietary option is already associated with this restaurant.")
	default:
		m.log.Errorf("Error %v", err)
		m.println("Error", err)
	}
	return false
}
