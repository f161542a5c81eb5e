package weather

import "testing"

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{input: "weather in Paris", want: "Paris", wantOK: true},
		{input: "Tokyo weather", want: "Tokyo", wantOK: true},
		{input: "what's the weather like in Berlin", want: "Berlin", wantOK: true},
		{input: "What's the weather in New York City?", want: "New York City", wantOK: true},
		{input: "how is the weather in london today?", want: "london", wantOK: true},
		{input: "Forecast for Rome this weekend", want: "Rome", wantOK: true},
		{input: "temperature at Buenos Aires right now!", want: "Buenos Aires", wantOK: true},
		{input: "Is it raining in Seattle?", want: "Seattle", wantOK: true},
		{input: "show me London weather", want: "London", wantOK: true},
		{input: "Tokyo's forecast", want: "Tokyo", wantOK: true},
		{input: "Madrid", want: "Madrid", wantOK: true},
		{input: "Rio De Janeiro?", want: "Rio De Janeiro", wantOK: true},
		{input: "I am travelling to Lisbon soon", want: "Lisbon", wantOK: true},
		{input: "What's the weather in São Paulo?", want: "São Paulo", wantOK: true},
		{input: "weather in münchen", want: "münchen", wantOK: true},
		{input: "Is it raining in Düsseldorf?", want: "Düsseldorf", wantOK: true},
		{input: "forecast for Zürich tomorrow", want: "Zürich", wantOK: true},
		{input: "Zürich weather", want: "Zürich", wantOK: true},
		{input: "in Malmö weather looks grim", want: "Malmö", wantOK: true},
		{input: "I love New York weather", want: "New York", wantOK: true},
		{input: "any idea about Berlin weather", want: "Berlin", wantOK: true},
		{input: "What's London weather", want: "London", wantOK: true},
		{input: "paris weather", want: "paris", wantOK: true},
		{input: "hello there", wantOK: false},
		{input: "Hello there", wantOK: false},
		{input: "what is the weather", wantOK: false},
		{input: "What is the weather like?", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractLocation(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ExtractLocation(%q) ok = %v (place %q), want %v", tt.input, ok, got, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractLocation(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// The specific "weather in X" template must win over the general "X weather" one:
// evaluated alone, the general template would capture the wrong words.
func TestLocationTemplatesOrder(t *testing.T) {
	input := "weather in Paris"

	byName := map[string]int{}
	for i, tpl := range LocationTemplates {
		byName[tpl.Name] = i
	}
	for _, pair := range [][2]string{
		{"weather in X", "X weather"},
		{"in X weather", "X weather"},
		{"X weather", "bare X"},
	} {
		if byName[pair[0]] >= byName[pair[1]] {
			t.Errorf("template %q must precede %q", pair[0], pair[1])
		}
	}

	place, ok := ExtractLocation(input)
	if !ok || place != "Paris" {
		t.Fatalf("ExtractLocation(%q) = %q, %v", input, place, ok)
	}

	if m := LocationTemplates[byName["bare X"]].Pattern.FindStringSubmatch("Weather In Paris"); m == nil {
		t.Fatal("bare template should accept capitalized words on its own")
	}
	if place, _ := ExtractLocation("Weather In Paris"); place != "Paris" {
		t.Errorf("ExtractLocation(%q) = %q, want Paris", "Weather In Paris", place)
	}
}

func TestMentionsWeather(t *testing.T) {
	tests := map[string]bool{
		"Will it rain tomorrow?":    true,
		"Is it SUNNY there":         true,
		"tell me about the climate": true,
		"hello there":               false,
		"what should I wear":        false,
	}
	for input, want := range tests {
		if got := MentionsWeather(input); got != want {
			t.Errorf("MentionsWeather(%q) = %v, want %v", input, got, want)
		}
	}
}
