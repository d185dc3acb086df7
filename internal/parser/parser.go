package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/medrecall/medrecall/internal/domain"
)

const (
	frontPrefix   = "F:"
	backPrefix    = "B:"
	subjectPrefix = "S:"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
)

// ParseFile reads a deck file from the given path and extracts all cards.
// The default subject applies to every card in the file that does not set
// its own with an S: line.
func ParseFile(path, defaultSubject string) ([]domain.ImportCard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file, defaultSubject)
}

// Parse reads deck markup from r and extracts all cards.
//
// The format: an F: line starts a card's front, a B: line its back; both
// may continue over following lines until the next marker. "---" ends a
// card. An S: line sets the subject for all cards that follow it. Cards
// without a front are dropped.
func Parse(r io.Reader, defaultSubject string) ([]domain.ImportCard, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.ImportCard
	var currentCard domain.ImportCard
	var currentBlock []string
	currentState := seeking
	subject := defaultSubject

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.TrimRight(strings.Join(currentBlock, "\n"), "\n")
		switch currentState {
		case readingFront:
			currentCard.Front = content
		case readingBack:
			currentCard.Back = content
		}
		currentBlock = nil
	}

	finishCard := func() {
		flushBlock()
		if currentCard.Front != "" {
			currentCard.Subject = subject
			cards = append(cards, currentCard)
		}
		currentCard = domain.ImportCard{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishCard()

		case strings.HasPrefix(line, subjectPrefix):
			finishCard()
			subject = strings.TrimSpace(line[len(subjectPrefix):])

		case strings.HasPrefix(line, frontPrefix):
			if currentState != seeking { // a new front always starts a new card
				finishCard()
			}
			currentState = readingFront
			currentBlock = append(currentBlock, trimMarker(line, frontPrefix))

		case strings.HasPrefix(line, backPrefix):
			flushBlock()
			currentState = readingBack
			currentBlock = append(currentBlock, trimMarker(line, backPrefix))

		default:
			if currentState != seeking {
				currentBlock = append(currentBlock, line)
			}
		}
	}

	finishCard() // the last card may not be terminated by ---

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func trimMarker(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}
