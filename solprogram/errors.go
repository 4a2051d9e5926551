package solprogram

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ProgramErrors - custom error codes of the Catoff program
var ProgramErrors = map[int]string{
	6000: "Unauthorized - The requested operation is not authorized",
	6001: "InsufficientFunds - Insufficient funds to complete the operation",
	6002: "UnsupportedCurrency - The specified currency is not supported",
	6003: "TransferFailed - Failed to perform the transfer",
	6004: "InvalidInput - Invalid input provided",
	6005: "InvalidSolAmount - Invalid sol amount",
	6006: "TimeError - Failed to get current time",
	6007: "InvalidAdminWallet - Invalid admin wallet public key",
}

var (
	customCodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"Custom":\s*(\d+)`),
		regexp.MustCompile(`"Custom":\s*"(\d+)"`),
		regexp.MustCompile(`Custom:\s*(\d+)`),
		regexp.MustCompile(`error code:\s*(\d+)`),
		regexp.MustCompile(`Error Number:\s*(\d+)`),
	}
	hexCodePattern = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
	logPattern     = regexp.MustCompile(`Program log: ([^"\n]+)`)
)

// ExtractErrorCode tries multiple methods to extract custom program error code
func ExtractErrorCode(err error) *int {
	if err == nil {
		return nil
	}
	errStr := err.Error()

	// {"InstructionError": [0, {"Custom": 6002}]}
	if start := strings.Index(errStr, `{"InstructionError"`); start != -1 {
		var wrapper struct {
			InstructionError []json.RawMessage `json:"InstructionError"`
		}
		dec := json.NewDecoder(strings.NewReader(errStr[start:]))
		if dec.Decode(&wrapper) == nil && len(wrapper.InstructionError) >= 2 {
			var custom struct {
				Custom *int `json:"Custom"`
			}
			if json.Unmarshal(wrapper.InstructionError[1], &custom) == nil && custom.Custom != nil {
				return custom.Custom
			}
		}
	}

	for _, re := range customCodePatterns {
		if m := re.FindStringSubmatch(errStr); len(m) > 1 {
			if code, err := strconv.Atoi(m[1]); err == nil {
				return &code
			}
		}
	}

	if m := hexCodePattern.FindStringSubmatch(errStr); len(m) > 1 {
		if code, err := strconv.ParseInt(m[1], 16, 64); err == nil {
			intCode := int(code)
			return &intCode
		}
	}
	return nil
}

// ParseSolanaError extracts and formats error
func ParseSolanaError(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()

	if strings.Contains(errStr, "BlockhashNotFound") ||
		strings.Contains(errStr, "Blockhash not found") {
		return "Transaction expired. The blockhash is no longer valid. Please create a new transaction and try again."
	}

	if code := ExtractErrorCode(err); code != nil {
		if msg, ok := ProgramErrors[*code]; ok {
			return msg
		}
		return fmt.Sprintf("Custom program error code: %d", *code)
	}

	if strings.Contains(errStr, "simulation failed") {
		return "Transaction simulation failed. Check program logs for details."
	}
	if strings.Contains(errStr, "insufficient funds") {
		return "Insufficient SOL balance to pay for transaction"
	}

	if len(errStr) > 300 {
		return errStr[:300] + "..."
	}
	return errStr
}

// ExtractLogMessages extracts program logs from error
func ExtractLogMessages(err error) []string {
	if err == nil {
		return nil
	}
	seen := map[string]bool{}
	var logs []string
	for _, m := range logPattern.FindAllStringSubmatch(err.Error(), -1) {
		line := strings.TrimSpace(m[1])
		if line != "" && !seen[line] {
			seen[line] = true
			logs = append(logs, line)
		}
	}
	return logs
}
