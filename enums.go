package main

//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// ListKind identifies which word list a feedback or consolidation action
// operates on
// ENUM(keywords,minus_words)
type ListKind string
