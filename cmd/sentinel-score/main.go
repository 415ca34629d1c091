package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calder/inbox-sentinel/internal/core"
	"github.com/calder/inbox-sentinel/internal/extract"
	"github.com/calder/inbox-sentinel/internal/logging"
	"github.com/calder/inbox-sentinel/internal/scoring"
	"github.com/calder/inbox-sentinel/internal/utils"
)

var (
	// Message flags
	sender  = flag.String("sender", "", "Sender identity (overrides the From header)")
	subject = flag.String("subject", "", "Message subject (overrides the Subject header)")
	snippet = flag.String("snippet", "", "Message snippet (overrides the parsed body)")

	// Detection flags
	sensitivity = flag.Int("sensitivity", 3, "Spam score threshold (1-10)")

	// Input flags
	inputFile = flag.String("file", "", "Input email file (use stdin if no flags given)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog   = flag.Bool("json-log", false, "Output logs in JSON format")
)

const snippetLimit = 200

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rec := recordFromFlags(logger)
	if rec.Sender == "" {
		logger.Fatal("No sender given; use -sender or provide an email on stdin/-file")
	}

	// Print message summary
	fmt.Printf("\n=== Message Summary ===\n")
	fmt.Printf("Sender: %s\n", rec.Sender)
	fmt.Printf("Subject: %s\n", rec.Subject)
	fmt.Printf("Domain: %s\n", rec.Domain)
	fmt.Printf("\n")

	scorer := scoring.NewHeuristicScorer()
	startTime := time.Now()

	score := scorer.Score(rec)
	category := scorer.Categorize(rec)
	tier, color, hasPriority := scorer.Prioritize(rec)

	duration := time.Since(startTime)

	// Print results
	fmt.Printf("=== Results ===\n")
	fmt.Printf("Spam score: %d\n", score)
	fmt.Printf("Is spam: %t (sensitivity %d)\n", score >= *sensitivity, *sensitivity)
	if score >= *sensitivity {
		fmt.Printf("Reason: %s\n", core.SpamReason(score))
	}
	fmt.Printf("Category: %s\n", category)
	if hasPriority {
		fmt.Printf("Priority: %s (%s)\n", tier, color)
	} else {
		fmt.Printf("Priority: none\n")
	}
	fmt.Printf("Processing time: %v\n", duration)
}

// recordFromFlags assembles the record to score, reading an email from the
// file or stdin when the field flags don't cover it.
func recordFromFlags(logger *zap.Logger) *core.MessageRecord {
	recSender := *sender
	recSubject := *subject
	recSnippet := *snippet

	if recSender == "" || (recSubject == "" && recSnippet == "") {
		from, subj, body, ok := readMessage(logger)
		if ok {
			if recSender == "" {
				recSender = from
			}
			if recSubject == "" {
				recSubject = subj
			}
			if recSnippet == "" {
				recSnippet = body
			}
		}
	}

	return &core.MessageRecord{
		Sender:    strings.TrimSpace(recSender),
		Subject:   strings.TrimSpace(recSubject),
		Snippet:   strings.TrimSpace(recSnippet),
		Domain:    extract.ExtractDomain(recSender),
		Timestamp: time.Now(),
	}
}

// readMessage parses an email from the input file or stdin, returning the
// From header, Subject header, and a body snippet. ok is false when no
// input was available.
func readMessage(logger *zap.Logger) (from, subject, body string, ok bool) {
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		stat, err := os.Stdin.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", "", "", false
		}
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}
	return msg.Header.Get("From"), msg.Header.Get("Subject"), bodySnippet(msg.Body), true
}

func bodySnippet(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return ""
	}
	return utils.Snippet(string(data), snippetLimit)
}
