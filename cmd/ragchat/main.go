package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/llm"
	_ "github.com/safetyserv/safetyserv/logging" // always set up logging
	"github.com/safetyserv/safetyserv/rag"
)

var companyDocuments = []string{
	"ABC 회사는 2023년 3월에 클라우드 기반 AI 서비스 '스마트에이전트'를 출시했습니다.",
	"ABC 회사의 직원 복지 제도에는 유연근무제, 연 20일의 휴가, 건강검진 지원이 포함됩니다.",
	"ABC 회사의 주요 경쟁사는 XYZ 테크놀로지와 DEF 소프트웨어입니다.",
}

var companyDocumentIds = []string{"product", "welfare", "competitor"}

var conversationQuestions = []string{
	"이 회사의 복지는 무엇인가요?",
	"이 회사의 주요 경쟁사는 어디인가요?",
	"이 회사가 출시한 새로운 서비스는 무엇인가요?",
}

var documentQuestions = []string{
	"회사의 유연근무제는 어떻게 운영되나요?",
	"연차휴가 정책은 어떻게 되나요?",
	"자격증 취득 시 어떤 혜택이 있나요?",
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [text file]\n", flag.CommandLine.Name())
		flag.PrintDefaults()
	}
	flag.Parse()

	c, err := config.NewInstanceConfig()
	if err != nil {
		log.Fatal(err)
	}

	client := llm.NewClient(c)
	embedder := llm.NewEmbedder(c)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if flag.NArg() > 0 {
		answerFromFile(ctx, c, client, embedder, flag.Arg(0))
		return
	}

	collection := rag.NewCollection("korean_docs", embedder)
	if err = collection.Add(ctx, companyDocumentIds, companyDocuments); err != nil {
		log.Fatal(err)
	}

	chatbot := rag.NewChatbot(client, collection, c.RagResults)
	for _, question := range conversationQuestions {
		answer, err := chatbot.Ask(ctx, question)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("질문:", question)
		fmt.Println("AI:", answer)
	}
}

func answerFromFile(ctx context.Context, c *config.InstanceConfig, client *llm.Client, embedder llm.Embedder, path string) {
	chunks, err := rag.LoadTextFile(path, c.RagChunkSize)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("문서를 %d개 청크로 분할했습니다.\n", len(chunks))

	collection := rag.NewCollection("company_docs", embedder)
	if err = collection.Add(ctx, rag.ChunkIds("policy_chunk", len(chunks)), chunks); err != nil {
		log.Fatal(err)
	}

	for _, question := range documentQuestions {
		answer, err := rag.AnswerFromDocument(ctx, client, collection, question, c.RagResults)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("\n질문:", question)
		fmt.Println("답변:", answer)
	}
}
