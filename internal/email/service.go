package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, orderNumber string, total int, lines []OrderLine) error {
	subject := fmt.Sprintf("Order confirmation %s", orderNumber)
	body := BuildOrderConfirmationBody(orderNumber, total, lines)
	return s.send(to, subject, body)
}

// SendPaymentResult notifies the buyer of a card payment outcome.
func (s *Service) SendPaymentResult(to, orderNumber string, succeeded bool) error {
	subject := fmt.Sprintf("Payment received for order %s", orderNumber)
	if !succeeded {
		subject = fmt.Sprintf("Payment failed for order %s", orderNumber)
	}
	body := BuildPaymentResultBody(orderNumber, succeeded)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
