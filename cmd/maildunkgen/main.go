// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// maildunkgen generates a fake mail-relay connector log for testing maildunk
// against. It appends one delimited block per interval.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit"
)

const delimiter = "----------\n"

func main() {
	fileName := flag.String("file", "connector.log", "The file the fake connector log will be appended to")
	numAccounts := flag.Int("accounts", 3, "The number of mail accounts the fake connector checks")
	sleepTime := flag.Duration("sleepTime", 1*time.Second, "The duration to sleep between blocks")
	errorRate := flag.Float64("errorRate", 0.1, "The probability that a block contains an Error line")
	flag.Parse()

	file, err := os.OpenFile(*fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("Got error when opening file %v: %v", *fileName, err)
	}
	defer file.Close()

	accounts := make([]string, *numAccounts)
	for i := range accounts {
		accounts[i] = gofakeit.Username()
	}

	for {
		var sb strings.Builder
		fmt.Fprintf(&sb, "check at [local time]: %s\n", time.Now().Format("2.1.2006 15:04:05"))
		for _, account := range accounts {
			if rand.Intn(2) == 0 {
				fmt.Fprintf(&sb, "%s -> %d new messages\n", account, rand.Intn(9)+1)
			} else {
				fmt.Fprintf(&sb, "%s -> no new messages\n", account)
			}
		}
		if rand.Float64() < *errorRate {
			fmt.Fprintf(&sb, "Error: %s %s\n", gofakeit.HackerVerb(), gofakeit.HackerNoun())
		}
		sb.WriteString(delimiter)
		if _, err := file.WriteString(sb.String()); err != nil {
			log.Fatalf("Got error when writing to file %v: %v", *fileName, err)
		}
		if sleepTime.Nanoseconds() != 0 {
			time.Sleep(*sleepTime)
		}
	}
}
